// Package main provides the annotator CLI.
//
// annotator maps the columns of a tabular participant file onto a
// standardized vocabulary and writes a machine-readable data dictionary:
//   - configs lists the selectable vocabulary configurations
//   - annotate re-exports an existing dictionary against a table, normalizing
//     legacy dictionaries
//   - serve runs the HTTP API used by the browser front-end
package main

import (
	"fmt"
	"os"
)

const usage = `annotator - data dictionary annotation

Usage:
  annotator configs  [-config file]
  annotator annotate -table T [-dictionary D] [-vocabulary N] [-out F] [-format json|xlsx|pdf] [-config file]
  annotator serve    [-config file]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error

	switch os.Args[1] {
	case "configs":
		err = runConfigs(os.Args[2:])
	case "annotate":
		err = runAnnotate(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "-h", "-help", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
