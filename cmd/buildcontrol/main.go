package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/buildcontrol/internal/configuration"
	"git.home.luguber.info/inful/buildcontrol/internal/daemon"
	bcerrors "git.home.luguber.info/inful/buildcontrol/internal/errors"
	"git.home.luguber.info/inful/buildcontrol/internal/project"
	"git.home.luguber.info/inful/buildcontrol/internal/settings"
	"git.home.luguber.info/inful/buildcontrol/internal/version"
)

var CLI struct {
	Settings string `short:"s" help:"Server settings file path" default:"buildcontrol.yaml"`
	Verbose  bool   `short:"v" help:"Enable verbose logging"`

	Serve struct {
		Config string `short:"c" help:"Project configuration document (overrides settings file)"`
	} `cmd:"" help:"Run the build-control server"`

	Validate struct {
		Config string `arg:"" help:"Project configuration document to validate"`
	} `cmd:"" help:"Validate a configuration document and report every violation"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	errorAdapter := bcerrors.NewCLIErrorAdapter(CLI.Verbose, logger)

	switch ctx.Command() {
	case "serve":
		errorAdapter.HandleError(runServe(logger))
	case "validate <config>":
		errorAdapter.HandleError(runValidate(CLI.Validate.Config, logger))
	case "version":
		fmt.Printf("buildcontrol %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
	default:
		errorAdapter.HandleError(fmt.Errorf("unknown command: %s", ctx.Command()))
	}
}

func runServe(logger *slog.Logger) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if CLI.Serve.Config != "" {
		cfg.ConfigPath = CLI.Serve.Config
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(runCtx); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("received signal, shutting down", slog.String("signal", sig.String()))

	cancel()
	return d.Stop(context.Background())
}

// loadSettings reads the settings file when present; a missing file at the
// default location just means defaults.
func loadSettings() (*settings.Settings, error) {
	if _, err := os.Stat(CLI.Settings); os.IsNotExist(err) {
		if CLI.Settings != "buildcontrol.yaml" {
			return nil, fmt.Errorf("settings file not found: %s", CLI.Settings)
		}
		return settings.Default(), nil
	}
	return settings.Load(CLI.Settings)
}

// runValidate runs the pipeline against a document and prints every
// validation event, not just the first.
func runValidate(path string, logger *slog.Logger) error {
	loader := project.NewLoader(configuration.WithLogger(logger))

	var events []configuration.ValidationEvent
	loader.OnValidationEvent(func(ev configuration.ValidationEvent) {
		events = append(events, ev)
	})
	loader.OnSubfileLoaded(func(subfile string) {
		logger.Debug("included subfile", slog.String("file", subfile))
	})

	cfg, err := loader.Load(path)

	for _, ev := range events {
		marker := "error"
		if ev.Severity == configuration.SeverityInfo {
			marker = "info"
		}
		fmt.Printf("%s: %s: %s\n", marker, ev.Location, ev.Message)
	}

	if err != nil {
		return err
	}

	fmt.Printf("configuration valid: %d project(s)\n", len(cfg.Projects))
	return nil
}
