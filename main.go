package main

import "github.com/theirongolddev/koshin/cmd"

func main() {
	cmd.Execute()
}
