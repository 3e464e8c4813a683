package main

import (
	"context"
	"os"

	"github.com/conneroisu/picopack/cmd"
	"github.com/conneroisu/picopack/internal/errors"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(errors.ExitCode(err))
	}
}
