package main

import (
	"os"

	"github.com/lumifoundation/lumi-backend/cmd/lumi-admin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
