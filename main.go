package main

import "rolepush/cmd"

func main() {
	cmd.Execute()
}
