package main

import "github.com/pfrederiksen/worldcup-events/internal/cli"

var version = "dev"

func main() {
	cli.Execute(version)
}
