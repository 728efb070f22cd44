package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"word-weaver-service/internal/domain"
)

func TestLeaderboardWebSocketStreamsUpdates(t *testing.T) {
	env := newTestEnv(t, false)
	token, _ := env.register(t, "kid@example.com", false, "")

	u := "ws" + env.server.URL[len("http"):] + "/ws/leaderboard?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot arrives first.
	entries := readLeaderboard(t, conn)
	if len(entries) != 1 || entries[0].TotalPoints != 0 {
		t.Fatalf("unexpected initial leaderboard %+v", entries)
	}

	env.feed.Broadcast([]domain.LeaderboardEntry{
		{FirstName: "Test", TotalPoints: 40, Level: 1},
	})

	entries = readLeaderboard(t, conn)
	if len(entries) != 1 || entries[0].TotalPoints != 40 {
		t.Fatalf("unexpected pushed leaderboard %+v", entries)
	}
}

func TestLeaderboardWebSocketRejectsBadToken(t *testing.T) {
	env := newTestEnv(t, false)

	u := "ws" + env.server.URL[len("http"):] + "/ws/leaderboard"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail without token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}

	_, resp, err = websocket.DefaultDialer.Dial(u+"?token=garbage", nil)
	if err == nil {
		t.Fatalf("expected dial to fail with bad token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %+v", resp)
	}
}

func readLeaderboard(t *testing.T, conn *websocket.Conn) []domain.LeaderboardEntry {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "leaderboard" {
		t.Fatalf("expected leaderboard frame, got %s", msg.Type)
	}
	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(msg.Payload, &entries); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return entries
}
