package main

import "sfxd/cmd"

func main() {
	cmd.Execute()
}
