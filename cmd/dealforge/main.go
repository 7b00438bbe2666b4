package main

import "github.com/dealforge/deal-engine/cli"

func main() {
	cli.Execute()
}
