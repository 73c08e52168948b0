package main

import "github.com/chriserin/story/cmd"

func main() {
	cmd.Execute()
}
