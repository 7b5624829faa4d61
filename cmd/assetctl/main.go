package main

import (
	"github.com/kestrelengine/assetpipe/internal/adapters/cli"
)

func main() {
	cli.Execute()
}
