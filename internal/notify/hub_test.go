package notify

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hotelops/internal/common"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_PublishReachesClients(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish("board.auto_assign", common.NewOutcome(common.OutcomePartialSuccess, "Assigned 2 of 3 pending tasks, 1 failed"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "board.auto_assign", msg.Topic)
	assert.Equal(t, common.OutcomePartialSuccess, msg.Outcome.Kind)
	assert.Equal(t, "Assigned 2 of 3 pending tasks, 1 failed", msg.Outcome.Message)
}

func TestHub_ClientLeaves(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)

	// publishing with nobody listening is a no-op
	hub.Publish("menu.commit", common.NewOutcome(common.OutcomeSuccess, "Saved 1 item"))
}
