// Command fmemory is the CLI surface over the memory engine: discover,
// recall, remember, forget, define, schema, init, promote, prune.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
