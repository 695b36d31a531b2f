package main

import (
	"fmt"
	"os"
)

var (
	GitCommit string
	GitTag    string
	BuildTime string
)

// @title        Book Catalog API
// @version      1.0
// @description  Paginated catalog of books with search and AI generated descriptions.
// @BasePath     /
func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
