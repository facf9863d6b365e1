package main

import (
	"github.com/janushq/janus/cmd"
)

func main() {
	cmd.Execute()
}
