package main

import "github.com/fakeyudi/focuslog/cmd"

func main() {
	cmd.Execute()
}
