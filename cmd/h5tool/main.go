// Command h5tool creates, lists and inspects HDF5 container files.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "h5tool:", err)
		os.Exit(1)
	}
}
