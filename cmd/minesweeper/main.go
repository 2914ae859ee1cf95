package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/minesweeper-client/internal/logger"
	"github.com/samvad-hq/minesweeper-client/pkg/minesweeper"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() { _ = logger.Close() }()

	if err := newApp(os.Stdout).RunContext(ctx, args); err != nil {
		logger.ErrorObj("command failed", "command_error", map[string]any{
			"kind":  minesweeper.KindOf(err).String(),
			"error": err.Error(),
		})
		fmt.Fprintf(os.Stderr, "minesweeper: %s\n", describe(err))
		return 1
	}
	return 0
}

// describe names the failure class so scripts can tell "gone" from "try again".
func describe(err error) string {
	apiErr, ok := minesweeper.AsAPIError(err)
	if !ok {
		return err.Error()
	}
	switch apiErr.Kind {
	case minesweeper.KindItemNotFound:
		return "not found (the game may have expired)"
	case minesweeper.KindNetwork:
		return fmt.Sprintf("service unreachable, retry later: %v", apiErr.Err)
	default:
		return apiErr.Error()
	}
}
