package main

import (
	"context"
	"os"

	"github.com/river-now/riverblog/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
