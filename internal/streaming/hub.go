// Package streaming exposes the engine's persisted-output stream (§6)
// and inbound door/train control commands over a websocket hub, adapted
// from the teacher's control-update broadcaster.
package streaming

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"pedsim/internal/telemetry"
	"pedsim/internal/wire"
)

// Hub fans out trajectory and door-flow records to every connected
// client and forwards decoded control commands to Commands() for the
// event processor to schedule.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader

	commands chan wire.ControlCommand
	log      telemetry.Logger
}

// NewHub returns an empty hub. log may be nil, in which case a no-op
// logger is used.
func NewHub(log telemetry.Logger) *Hub {
	if log == nil {
		log = telemetry.Noop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		commands: make(chan wire.ControlCommand, 64),
		log:      log,
	}
}

// Commands returns the channel of control commands decoded from clients;
// the simulation loop's owner drains it between ticks and schedules the
// corresponding events.
func (h *Hub) Commands() <-chan wire.ControlCommand {
	return h.commands
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// BroadcastTrajectory sends one agent's per-tick state to every client.
func (h *Hub) BroadcastTrajectory(rec wire.TrajectoryRecord) {
	payload, err := rec.MarshalBinary()
	if err != nil {
		h.log.Warn(context.TODO(), "failed to marshal trajectory record", telemetry.Int("agent_id", int(rec.AgentID)))
		return
	}
	h.broadcast(payload)
}

// BroadcastDoorFlow sends one door-crossing update to every client.
func (h *Hub) BroadcastDoorFlow(rec wire.DoorFlowRecord) {
	payload, err := rec.MarshalBinary()
	if err != nil {
		h.log.Warn(context.TODO(), "failed to marshal door flow record", telemetry.Int("transition_id", int(rec.TransitionID)))
		return
	}
	h.broadcast(payload)
}

// Handler upgrades incoming requests to a websocket connection and reads
// control commands off it until the client disconnects.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn(r.Context(), "websocket upgrade failed", telemetry.String("error", err.Error()))
			return
		}
		h.add(conn)
		defer h.remove(conn)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var cmd wire.ControlCommand
			if err := cmd.UnmarshalBinary(data); err != nil {
				h.log.Warn(r.Context(), "unable to decode control command", telemetry.String("error", err.Error()))
				continue
			}
			h.commands <- cmd
		}
	}
}
