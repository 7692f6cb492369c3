package main

import "github.com/mcoot/dojo-starter/internal/cli"

func main() {
	cli.Execute()
}
