// Package main provides the EntanglementGraph CLI application
package main

import (
	"fmt"
	"os"
)

// Version information set during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("EntanglementGraph %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
			return
		case "demo":
			exitOn(runDemo(os.Args[2:]))
			return
		case "decay":
			exitOn(runDecay(os.Args[2:]))
			return
		}
	}

	fmt.Println("🕸️  EntanglementGraph - Weighted State Propagation")
	fmt.Println("Commands: version | demo | decay")
	fmt.Println("Run 'entanglegraph demo -h' to list the demo flags")
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "entanglegraph:", err)
		os.Exit(1)
	}
}
