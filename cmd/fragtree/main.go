// SPDX-License-Identifier: MIT

// fragtree - fragmentation tree computation for MS/MS spectra
package main

import (
	"fmt"
	"os"

	"github.com/mzkit/fragtree/cmd/fragtree/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
