package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"pedsim/internal/geometry"
	"pedsim/internal/simulation"
	"pedsim/internal/streaming"
	"pedsim/internal/telemetry"
)

// serveCmd runs a scenario continuously, streaming trajectories and door
// flows to websocket clients and accepting door/train control commands
// from them, adapted from the teacher's controlHub demo server.
func serveCmd() *cobra.Command {
	var addr string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "serve [scenario-path]",
		Short: "Serve a scenario over websocket, streaming trajectories live",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runServe(args[0], addr, logLevel)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	return cmd
}

func runServe(scenarioPath, addr, logLevel string) error {
	log := telemetry.New(telemetry.Config{Level: logLevel, Format: "text"})
	metrics, err := telemetry.NewCollector(nil)
	if err != nil {
		return err
	}

	sim, err := loadScenario(scenarioPath, simulation.Config{Log: log, Metrics: metrics})
	if err != nil {
		return err
	}

	hub := streaming.NewHub(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go forwardRecords(sim, hub)
	go applyCommands(ctx, sim, hub, log)
	go tickForever(ctx, sim, log)

	mux := http.NewServeMux()
	mux.Handle("/ws/stream", hub.Handler())
	mux.Handle("/metrics", promhttp.Handler())

	log.Info(ctx, "serving pedsim", telemetry.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}

// tickForever advances the simulation once every 50 ms of wall-clock time,
// independent of its dT, until ctx is cancelled.
func tickForever(ctx context.Context, sim *simulation.Simulation, log telemetry.Logger) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sim.Iterate(); err != nil {
				log.Error(ctx, "tick failed", telemetry.String("error", err.Error()))
				return
			}
		}
	}
}

// forwardRecords relays each tick's trajectories and door flows to every
// connected websocket client.
func forwardRecords(sim *simulation.Simulation, hub *streaming.Hub) {
	for rec := range sim.Records() {
		for _, t := range rec.Trajectories {
			hub.BroadcastTrajectory(t)
		}
		for _, d := range rec.DoorFlows {
			hub.BroadcastDoorFlow(d)
		}
	}
}

// applyCommands schedules the events a control command names against the
// simulation, taking effect at the earliest opportunity: an events.Event
// scheduled for time 0 is always due on the next tick's event-application
// step regardless of how far the clock has already advanced.
func applyCommands(ctx context.Context, sim *simulation.Simulation, hub *streaming.Hub, log telemetry.Logger) {
	const immediate = 0
	for cmd := range hub.Commands() {
		switch cmd.Kind {
		case "open_door":
			sim.ScheduleOpenDoor(immediate, geometry.TransitionID(cmd.DoorID))
		case "temp_close_door":
			sim.ScheduleTempCloseDoor(immediate, geometry.TransitionID(cmd.DoorID))
		case "close_door":
			sim.ScheduleCloseDoor(immediate, geometry.TransitionID(cmd.DoorID))
		case "reset_door":
			sim.ScheduleResetDoor(immediate, geometry.TransitionID(cmd.DoorID))
		case "deactivate_train":
			sim.ScheduleDeactivateTrain(immediate, cmd.TrainID)
		default:
			log.Warn(ctx, "unsupported control command",
				telemetry.String("kind", cmd.Kind))
		}
	}
}
