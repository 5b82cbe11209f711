// Command bamletsim assembles, runs, traces and verifies Bamlet programs
// from the command line, generalizing the teacher's one-off
// verify/cmd/verify-* mains into a single multi-command tool (§1, §4).
package main

import (
	"fmt"
	"os"

	"github.com/tebeka/atexit"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
