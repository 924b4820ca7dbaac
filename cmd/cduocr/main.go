package main

import (
	"github.com/dcsflight/cduocr/cmd/cduocr/cmd"
)

func main() {
	cmd.Execute()
}
