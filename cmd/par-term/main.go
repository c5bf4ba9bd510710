// Command par-term is the composition root for the rendering/session
// engine: it loads configuration, initializes logging, and wires the
// Window Coordinator and its supervised background goroutines. Owning an
// OS window, an event loop, and a GPU device are external-collaborator
// concerns (see SPEC_FULL.md §1 Non-goals) and live outside this package;
// main's job stops at handing a ready Coordinator to whatever embeds it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/paulrobello/par-term-sub012/internal/config"
	"github.com/paulrobello/par-term-sub012/internal/coordinator"
	"github.com/paulrobello/par-term-sub012/internal/logging"
	"github.com/paulrobello/par-term-sub012/internal/supervisor"
	"github.com/paulrobello/par-term-sub012/internal/update"
)

// Version info set by GoReleaser via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	versionFlag := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config.json (defaults to ~/.par-term/config.json)")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("par-term %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := config.DefaultConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving default config: %v\n", err)
		os.Exit(1)
	}
	path := *configPath
	if path == "" {
		path = cfg.Paths.ConfigPath
	}
	cfg, err = config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Paths.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating data directories: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Initialize(cfg.Paths.LogDir, logging.LevelInfo); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not initialize logging: %v\n", err)
	}
	defer logging.Close()

	logging.Info("Starting par-term %s (commit: %s, built: %s)", version, commit, date)

	sup := supervisor.New(context.Background())
	sup.SetErrorHandler(func(name string, err error) {
		logging.Error("%s exited: %v", name, err)
	})
	defer sup.Stop()

	coord := coordinator.New(sup)

	if cfg.Update.AutoCheck {
		startUpdateCheck(sup, version, commit, date, cfg.Update.Channel)
	}

	logging.Info("par-term engine ready: %d tab(s)", len(coord.Tabs()))
}

// startUpdateCheck runs a single release-channel probe on a supervised
// goroutine so a network failure never takes down the process.
func startUpdateCheck(sup *supervisor.Supervisor, version, commit, date, channel string) {
	sup.Start("update-check", func(ctx context.Context) error {
		u := update.NewUpdater(version, commit, date)
		result, err := u.Check()
		if err != nil {
			return err
		}
		if result != nil && result.Release != nil {
			logging.Info("update available on %s channel: %s", channel, result.Release.TagName)
		}
		return nil
	})
}
