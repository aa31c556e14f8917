package main

import "pixelate/cmd"

func main() {
	cmd.Execute()
}
