// Package main provides the ellie CLI.
package main

import "github.com/mesh-intelligence/ellie/internal/cli"

func main() {
	cli.Execute()
}
