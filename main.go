package main

import "github.com/arkadyvz/visorbot/cmd"

func main() {
	cmd.Execute()
}
