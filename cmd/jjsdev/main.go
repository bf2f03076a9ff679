// Command jjsdev incrementally compiles Java and Jribble sources into
// cached compilation units and their mini-AST.
package main

import (
	"os"

	"jjsdev/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
