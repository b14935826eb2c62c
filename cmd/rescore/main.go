// rescore - semi-supervised rescoring and FDR confidence estimation for
// peptide-spectrum matches.
package main

import (
	"fmt"
	"os"

	"github.com/psmkit/rescore/cmd/rescore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
