package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/rewear/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (optional, defaults to ~/.config/rewear/config.toml)")
	prefsPath := flag.String("prefs", "", "preferences file path (optional, defaults to ~/.config/rewear/prefs.toml)")
	pollSeconds := flag.Int("poll", 0, "background refresh interval in seconds (optional, defaults to 10s)")
	logStderr := flag.Bool("log-stderr", false, "write logs to stderr instead of the data directory")
	ephemeral := flag.Bool("ephemeral", false, "keep the session and local listings in memory only")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath:  *configPath,
		PrefsPath:   *prefsPath,
		LogToStderr: *logStderr,
		Ephemeral:   *ephemeral,
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "rewear: %v\n", err)
		return 1
	}
	return 0
}
