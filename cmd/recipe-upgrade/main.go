package main

import "github.com/droplab/recipe-runner/cmd/recipe-upgrade/cmd"

func main() {
	cmd.Execute()
}
