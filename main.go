package main

import "github.com/localq/localq/cmd"

func main() {
	cmd.Execute()
}
