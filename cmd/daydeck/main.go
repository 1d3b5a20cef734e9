// Command daydeck is the CLI entry point.
package main

import (
	"os"

	"github.com/mvreilly/daydeck/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
