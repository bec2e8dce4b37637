package main

import (
	"os"

	"github.com/SAP-F-2025/quizbank/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
