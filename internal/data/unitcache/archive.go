package unitcache

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/data/blob"
	"jjsdev/internal/engine/javac"
	"jjsdev/internal/shared/intern"
	"jjsdev/internal/shared/util"
)

// ArchiveFormat is bumped whenever archiveFile changes shape.
const ArchiveFormat = 1

// archiveFile is self-contained: it carries the class bytes every unit
// record points at.
type archiveFile struct {
	Format    int                 `json:"format"`
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Units     []*javac.UnitRecord `json:"units"`
	Blobs     map[string][]byte   `json:"blobs"`
}

// WriteArchive encodes a with the class bytes it needs from store.
func WriteArchive(w io.Writer, a *javac.Archive, store *blob.Store) error {
	f := archiveFile{
		Format:    ArchiveFormat,
		ID:        a.ID,
		CreatedAt: time.Now().UTC(),
		Units:     make([]*javac.UnitRecord, 0, len(a.Units)),
		Blobs:     make(map[string][]byte),
	}
	for _, u := range a.Units {
		rec, err := javac.RecordOf(u)
		if err != nil {
			return err
		}
		for _, cr := range rec.Classes {
			if _, ok := f.Blobs[cr.BlobKey]; ok {
				continue
			}
			b, err := store.Get(cr.BlobKey)
			if err != nil {
				return errors.AddContext(err, errors.CtxUnit, rec.Location)
			}
			f.Blobs[cr.BlobKey] = b
		}
		f.Units = append(f.Units, rec)
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(&f); err != nil {
		return errors.Wrap(err, errors.CodeIO, "writing archive")
	}
	return nil
}

// ReadArchive decodes an archive, storing its class bytes in store.
func ReadArchive(r io.Reader, store *blob.Store, interner *intern.Interner) (*javac.Archive, error) {
	var f archiveFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(err, errors.CodeCorrupt, "decoding archive")
	}
	if f.Format != ArchiveFormat {
		return nil, errors.Newf(errors.CodeNotSupported, "archive format %d, expected %d", f.Format, ArchiveFormat)
	}
	for _, key := range util.SortedStringKeys(f.Blobs) {
		b := f.Blobs[key]
		if blob.Key(b) != key {
			return nil, errors.Newf(errors.CodeCorrupt, "archive blob %s does not match its content", key)
		}
		if _, err := store.Put(b); err != nil {
			return nil, err
		}
	}
	a := &javac.Archive{ID: f.ID, Units: make([]*javac.CachedUnit, 0, len(f.Units))}
	for _, rec := range f.Units {
		u, err := rec.Restore(store, interner)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxOperation, "restore archived unit")
		}
		a.Units = append(a.Units, u)
	}
	return a, nil
}

// WriteArchiveFile writes the archive next to path and renames it into
// place.
func WriteArchiveFile(path string, a *javac.Archive, store *blob.Store) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeIO, "creating archive directory"), errors.CtxPath, path)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeIO, "creating archive"), errors.CtxPath, path)
	}
	defer os.Remove(tmp.Name())
	if err := WriteArchive(tmp, a, store); err != nil {
		_ = tmp.Close()
		return errors.AddContext(err, errors.CtxPath, path)
	}
	if err := tmp.Close(); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeIO, "closing archive"), errors.CtxPath, path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeIO, "renaming archive"), errors.CtxPath, path)
	}
	return nil
}

func ReadArchiveFile(path string, store *blob.Store, interner *intern.Interner) (*javac.Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "opening archive"), errors.CtxPath, path)
	}
	defer f.Close()
	a, err := ReadArchive(f, store, interner)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return a, nil
}
