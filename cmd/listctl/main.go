package main

import (
	"fmt"
	"os"

	"distribution-service/internal/cli"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
