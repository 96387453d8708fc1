package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chatroute/autotransfer/cmd/autotransferd/interactive"
	"github.com/chatroute/autotransfer/pkg/autotransfer"
	"github.com/chatroute/autotransfer/pkg/clock"
	"github.com/chatroute/autotransfer/pkg/config"
	"github.com/chatroute/autotransfer/pkg/hooks"
	"github.com/chatroute/autotransfer/pkg/livechat"
	"github.com/chatroute/autotransfer/pkg/log"
	"github.com/chatroute/autotransfer/pkg/persistence"
	"github.com/chatroute/autotransfer/pkg/settings"
)

// daemon owns the monitor and its collaborators.
type daemon struct {
	logger *slog.Logger
	clock  clock.Clock

	settings *settings.Store
	rooms    *livechat.MemoryStore
	agents   *livechat.AgentPool
	hooks    *hooks.Registry
	monitor  *autotransfer.Monitor
	bridge   *autotransfer.Bridge

	state     *persistence.StateStore
	eventFile *log.FileLogger
}

// newDaemon wires the components. Cancelling ctx aborts in-flight
// transfers.
func newDaemon(ctx context.Context, cfg *config.Config, logger *slog.Logger, clk clock.Clock) (*daemon, error) {
	d := &daemon{
		logger:   logger,
		clock:    clk,
		settings: settings.FromMap(cfg.Settings),
		rooms:    livechat.NewMemoryStore(cfg.LivechatRooms()...),
		hooks:    hooks.NewRegistry(logger),
	}

	d.agents = livechat.NewAgentPool(d.rooms, cfg.Agents, logger)

	events := []log.Logger{log.NewSlogAdapter(logger)}
	if cfg.Paths.EventLog != "" {
		f, err := log.NewFileLogger(cfg.Paths.EventLog)
		if err != nil {
			return nil, fmt.Errorf("open event log: %w", err)
		}
		d.eventFile = f
		events = append(events, f)
	}
	eventLogger := log.NewMultiLogger(events...)

	if cfg.Paths.StateFile != "" {
		d.state = persistence.NewStateStore(cfg.Paths.StateFile)
	}

	d.monitor = autotransfer.NewMonitor(d.rooms, d.agents, autotransfer.MonitorConfig{
		Clock:           clk,
		Context:         ctx,
		TransferTimeout: cfg.Monitor.TransferTimeout.Std(),
		RestoreGrace:    cfg.Monitor.RestoreGrace.Std(),
		Logger:          logger,
		EventLogger:     eventLogger,
	})
	d.bridge = autotransfer.NewBridge(d.monitor, d.hooks, d.settings, d.rooms, autotransfer.BridgeConfig{
		Logger:      logger,
		EventLogger: eventLogger,
	})
	return d, nil
}

// start applies the timeout setting and restores saved transfers.
func (d *daemon) start() error {
	d.bridge.Start()

	if d.state == nil {
		return nil
	}
	saved, err := d.state.Load()
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if saved == nil || len(saved.Pending) == 0 {
		return nil
	}
	if !d.bridge.Enabled() {
		d.logger.Info("auto-transfer disabled, dropping saved transfers", "count", len(saved.Pending))
		return nil
	}
	n := d.monitor.Restore(saved)
	d.logger.Info("restored pending transfers", "count", n, "savedAt", saved.SavedAt)
	return nil
}

// saveState writes the pending transfers to the state file.
func (d *daemon) saveState() error {
	if d.state == nil {
		return nil
	}
	snapshot := d.monitor.Snapshot()
	snapshot.Timeout = d.bridge.Timeout()
	if err := d.state.Save(&snapshot); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// shutdown saves state and releases everything. Pending timers are
// dropped without cancellation events so they can be restored.
func (d *daemon) shutdown() error {
	err := d.saveState()

	d.monitor.Close()
	d.bridge.Stop()
	d.settings.Close()

	if d.eventFile != nil {
		if cerr := d.eventFile.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close event log: %w", cerr)
		}
	}
	return err
}

func (d *daemon) env() interactive.Env {
	return interactive.Env{
		Settings: d.settings,
		Rooms:    d.rooms,
		Agents:   d.agents,
		Hooks:    d.hooks,
		Monitor:  d.monitor,
		Bridge:   d.bridge,
		Now:      d.clock.Now,
	}
}
