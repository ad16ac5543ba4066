package main

import (
	"os"

	"github.com/ampline/ampline/campaignservice"
)

func main() {
	if err := campaignservice.Run(); err != nil {
		os.Exit(1)
	}
}
