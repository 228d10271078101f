package main

import (
	"github.com/robotalks/openrover.go/pkg/cli/sh"
	"github.com/robotalks/openrover.go/pkg/rover"
)

func init() {
	rover.SetupFlags()
}

func main() {
	sh.Main()
}
