package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/scenegraph/internal/cli"
	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stderr, cli.LogInfo)
	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for bad input, 3 for a graph that failed a consistency
// check and 1 for anything else.
func exitCode(err error) int {
	switch sgerrors.GetCode(err).Category() {
	case sgerrors.CategoryInput:
		return 2
	case sgerrors.CategoryConflict:
		return 3
	default:
		return 1
	}
}
