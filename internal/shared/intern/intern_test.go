package intern

import (
	"strings"
	"sync"
	"testing"
	"unsafe"
)

func TestInternReturnsCanonicalCopy(t *testing.T) {
	in := New()
	a := in.Intern(strings.Repeat("x", 8))
	b := in.Intern(strings.Repeat("x", 8))
	if unsafe.StringData(a) != unsafe.StringData(b) {
		t.Fatal("expected the same backing storage for equal strings")
	}
	if in.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", in.Len())
	}
}

func TestNilInterner(t *testing.T) {
	var in *Interner
	if in.Intern("a") != "a" || in.Len() != 0 {
		t.Fatal("nil interner should pass strings through")
	}
}

func TestInternConcurrent(t *testing.T) {
	in := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				in.Intern("java.lang.Object")
			}
		}()
	}
	wg.Wait()
	if in.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", in.Len())
	}
}
