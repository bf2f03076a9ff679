package cli

import "flag"

const versionString = "0.3.0"

type cliOptions struct {
	configPath string
	once       bool
	watch      bool
	strict     bool
	dump       string
	dumpAll    bool
	archiveOut string
	archiveIn  string
	verbose    bool
	version    bool
	args       []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("jjsdev", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default ./jjsdev.toml when present)")
	fs.BoolVar(&opts.once, "once", false, "Build once and exit")
	fs.BoolVar(&opts.watch, "watch", false, "Rebuild whenever sources change")
	fs.BoolVar(&opts.strict, "strict", false, "Report first-pass compile errors and fail on error units")
	fs.StringVar(&opts.dump, "dump", "", "Print the mini-AST of a type, e.g. com.example.Hello")
	fs.BoolVar(&opts.dumpAll, "dump-all", false, "Print the mini-AST of every unit")
	fs.StringVar(&opts.archiveOut, "archive-out", "", "Write the built units to an archive file")
	fs.StringVar(&opts.archiveIn, "archive-in", "", "Seed the unit cache from an archive file before building")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
