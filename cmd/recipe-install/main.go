package main

import "github.com/droplab/recipe-runner/cmd/recipe-install/cmd"

func main() {
	cmd.Execute()
}
