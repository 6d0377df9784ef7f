package main

import (
	"fmt"
	"os"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scan":
		runScan(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "version":
		fmt.Printf("ca65lsp %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: ca65lsp <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  scan     Scan a workspace once and print a symbol-table summary")
	fmt.Println("  serve    Start the MCP server on stdin/stdout")
	fmt.Println("  watch    Scan a workspace, then watch it and reindex on change")
	fmt.Println("  version  Print version")
	fmt.Println("  help     Show this help message")
}
