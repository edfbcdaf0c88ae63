package main

import "github.com/mavshell/msh/cmd"

func main() {
	cmd.Execute()
}
