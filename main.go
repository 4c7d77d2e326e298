package main

import "github.com/theirongolddev/tripwidget/cmd"

func main() {
	cmd.Execute()
}
