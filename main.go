package main

import "shiftclock/cmd"

func main() {
	cmd.Execute()
}
