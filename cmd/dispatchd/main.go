package main

import (
	"fmt"
	"os"
)

// Version of the dispatchd binary, overridden at link time.
var Version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
