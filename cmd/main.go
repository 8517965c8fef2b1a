package main

import (
	"os"

	"github.com/wengchengjian/env/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
