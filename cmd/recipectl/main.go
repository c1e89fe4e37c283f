package main

import (
	"os"

	"recipe-extractor/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
