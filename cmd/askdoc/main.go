package main

import (
	"askdoc/internal/cli"
)

// main hands control to the cobra command tree.
func main() {
	cli.Execute()
}
