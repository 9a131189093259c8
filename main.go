package main

import "github.com/mfatouaki/patchscope/cmd"

func main() {
	cmd.Execute()
}
