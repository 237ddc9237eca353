package main

import "github.com/RyanBlaney/spectro/cmd"

func main() {
	cmd.Execute()
}
