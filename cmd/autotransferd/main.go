// Command autotransferd runs the livechat auto-transfer monitor.
//
// Rooms taken by an agent are transferred to the next online agent when
// the agent does not reply within the configured timeout. The timeout is
// the Livechat_auto_transfer_chat_if_no_response_routing setting, in
// milliseconds; zero or missing disables auto-transfer.
//
// Usage:
//
//	autotransferd [flags]
//
// Examples:
//
//	# Run the developer console with a 30 second timeout
//	autotransferd --timeout 30000 --interactive
//
//	# Run from a config file, keeping pending transfers across restarts
//	autotransferd --config autotransferd.yaml --state-file state.json
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/chatroute/autotransfer/cmd/autotransferd/interactive"
	"github.com/chatroute/autotransfer/pkg/autotransfer"
	"github.com/chatroute/autotransfer/pkg/clock"
	"github.com/chatroute/autotransfer/pkg/config"
	"github.com/chatroute/autotransfer/pkg/version"
)

// options holds command-line flags. Flags that are set override the
// config file.
type options struct {
	configFile   string
	eventLog     string
	stateFile    string
	logLevel     string
	logFormat    string
	timeoutMS    int64
	saveInterval time.Duration
	interactive  bool
	showVersion  bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var opts options
	flags := pflag.NewFlagSet("autotransferd", pflag.ContinueOnError)
	flags.StringVarP(&opts.configFile, "config", "c", "", "Configuration file path (YAML)")
	flags.StringVar(&opts.eventLog, "event-log", "", "Append monitor events to this CBOR file")
	flags.StringVar(&opts.stateFile, "state-file", "", "Save and restore pending transfers in this file")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: text, json")
	flags.Int64Var(&opts.timeoutMS, "timeout", -1, "Auto-transfer timeout in milliseconds (0 disables; overrides the config setting)")
	flags.DurationVar(&opts.saveInterval, "save-interval", 30*time.Second, "How often to save pending transfers (0 saves on exit only)")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "Run the developer console")
	flags.BoolVar(&opts.showVersion, "version", false, "Print version and exit")

	if err := flags.Parse(args); err != nil {
		return err
	}
	if opts.showVersion {
		version.Print(os.Stdout, "autotransferd")
		return nil
	}

	cfg, err := loadConfig(opts, flags)
	if err != nil {
		return err
	}

	var console *interactive.Console
	var logOut io.Writer = os.Stderr
	if opts.interactive {
		console, err = interactive.New()
		if err != nil {
			return err
		}
		logOut = console.Stderr()
	}

	logger := cfg.NewLogger(logOut).With("session", uuid.NewString())

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDaemon(sigCtx, cfg, logger, clock.Real())
	if err != nil {
		return err
	}
	if err := d.start(); err != nil {
		_ = d.shutdown()
		return err
	}
	logger.Info("autotransferd started",
		"enabled", d.bridge.Enabled(),
		"timeout", d.bridge.Timeout(),
		"rooms", len(d.rooms.List()),
		"agents", len(d.agents.Agents()),
		"version", version.Short())

	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if console != nil {
		console.Attach(d.env())
		g.Go(func() error {
			console.Run(ctx, cancel)
			return nil
		})
	}

	if opts.saveInterval > 0 && cfg.Paths.StateFile != "" {
		g.Go(func() error {
			ticker := time.NewTicker(opts.saveInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := d.saveState(); err != nil {
						logger.Warn("periodic save failed", "error", err)
					}
				}
			}
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	waitErr := g.Wait()
	logger.Info("shutting down", "pending", len(d.monitor.Pending()))

	return errors.Join(waitErr, d.shutdown())
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(opts options, flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if opts.configFile != "" {
		loaded, err := config.Load(opts.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if flags.Changed("event-log") {
		cfg.Paths.EventLog = opts.eventLog
	}
	if flags.Changed("state-file") {
		cfg.Paths.StateFile = opts.stateFile
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = opts.logFormat
	}
	if flags.Changed("timeout") {
		cfg.Settings[autotransfer.TimeoutSetting] = opts.timeoutMS
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
