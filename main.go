package main

import "github.com/maximthomas/gortas-session/cmd"

func main() {
	cmd.Execute()
}
