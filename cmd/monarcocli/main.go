package main

import (
	"github.com/robotalks/monarco.go/pkg/cli/sh"
	"github.com/robotalks/monarco.go/pkg/config"

	_ "github.com/robotalks/monarco.go/pkg/cli/cmds/hat"
)

//go-build: CGO_ENABLED=0

func init() {
	config.SetupClientFlags()
}

func main() {
	sh.Main()
}
