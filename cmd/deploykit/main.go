package main

import (
	"github.com/AmartiSamia/deploykit/pkg/cli"
)

func main() {
	cli.Execute()
}
