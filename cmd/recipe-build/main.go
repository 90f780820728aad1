package main

import "github.com/droplab/recipe-runner/cmd/recipe-build/cmd"

func main() {
	cmd.Execute()
}
