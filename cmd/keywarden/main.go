package main

import "github.com/jmcleod/keywarden/cmd/keywarden/cmd"

func main() {
	cmd.Execute()
}
