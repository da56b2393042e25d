package streaming

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"pedsim/internal/wire"
)

func TestHubBroadcastsTrajectoryToClient(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// Give the server goroutine a moment to register the connection.
	time.Sleep(20 * time.Millisecond)

	rec := wire.TrajectoryRecord{Tick: 1, AgentID: 5, X: 1, Y: 2, Orientation: 0, Speed: 1.1}
	hub.BroadcastTrajectory(rec)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var got wire.TrajectoryRecord
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	if got != rec {
		t.Fatalf("expected client to receive the broadcast record, got %+v want %+v", got, rec)
	}
}

func TestHubForwardsControlCommandsToChannel(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	cmd := wire.ControlCommand{Kind: "OpenDoor", DoorID: 3}
	payload, err := cmd.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-hub.Commands():
		if got != cmd {
			t.Fatalf("expected forwarded command %+v, got %+v", cmd, got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the hub to forward the control command")
	}
}
