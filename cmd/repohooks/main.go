package main

import "github.com/carlibs/repohooks/cmd"

func main() {
	cmd.Execute()
}
