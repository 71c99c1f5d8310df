package main

import "github.com/deppfellow/tours/cmd/tours/command"

func main() {
	command.Execute()
}
