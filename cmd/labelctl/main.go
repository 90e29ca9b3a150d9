package main

import "labelctl/internal/cmd"

func main() {
	cmd.Execute()
}
