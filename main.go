package main

import "github.com/mmmorks/chatter/cmd"

func main() {
	cmd.Execute()
}
