package main

import (
	"context"
	"os"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/cli"
)

var version = "dev"

func main() {
	if err := cli.Run(context.Background(), os.Args, version); err != nil {
		os.Exit(1)
	}
}
