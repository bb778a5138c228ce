package main

import "mafiamadness/internal/cli"

func main() {
	cli.Execute()
}
