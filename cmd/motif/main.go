// Command motif is the CLI for the component retrieval engine.
package main

import "github.com/mesh-intelligence/motif/internal/cli"

func main() {
	cli.Execute()
}
