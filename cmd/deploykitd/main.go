package main

import (
	"log"

	"github.com/AmartiSamia/deploykit/pkg/api"
)

func main() {
	if err := api.Serve(); err != nil {
		log.Fatal(err)
	}
}
