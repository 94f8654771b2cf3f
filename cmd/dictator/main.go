package main

import "github.com/chaz8081/dictator/internal/cli"

func main() {
	cli.Execute()
}
