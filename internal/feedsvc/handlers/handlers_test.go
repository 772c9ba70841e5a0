package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/idcard-services/internal/comm"
	"github.com/avvvet/idcard-services/internal/feedsvc/ws"
)

func newFeedServer(t *testing.T) (*httptest.Server, *ws.Ws) {
	t.Helper()
	s := ws.NewWs()
	h := NewHandler(s, nil)

	r := chi.NewRouter()
	r.Get("/v1/ws", h.HandleWebSocket)
	r.Get("/v1/health", h.HealthHandler)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, s
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) comm.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var m comm.WSMessage
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func TestPingPong(t *testing.T) {
	srv, _ := newFeedServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(comm.WSMessage{Type: comm.MsgPing}))
	m := readMessage(t, conn)
	assert.Equal(t, comm.MsgPong, m.Type)
	assert.NotEmpty(t, m.SocketId)
}

func TestMalformedMessage(t *testing.T) {
	srv, _ := newFeedServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{nope")))
	m := readMessage(t, conn)
	assert.Equal(t, comm.MsgError, m.Type)

	require.NoError(t, conn.WriteJSON(comm.WSMessage{Type: "subscribe-all"}))
	m = readMessage(t, conn)
	assert.Equal(t, comm.MsgError, m.Type)
	assert.Contains(t, string(m.Data), "unknown message type")
}

func TestBroadcastReachesAllSockets(t *testing.T) {
	srv, s := newFeedServer(t)
	a := dial(t, srv)
	b := dial(t, srv)

	require.Eventually(t, func() bool { return s.Count() == 2 }, 3*time.Second, 10*time.Millisecond)

	data, err := json.Marshal(map[string]string{"id": "01J0000000000000000000000"})
	require.NoError(t, err)
	s.Broadcast(&comm.WSMessage{Type: comm.MsgScanLogged, Data: data})

	for _, conn := range []*websocket.Conn{a, b} {
		m := readMessage(t, conn)
		assert.Equal(t, comm.MsgScanLogged, m.Type)
		assert.JSONEq(t, string(data), string(m.Data))
	}
}

func TestDisconnectForgetsSocket(t *testing.T) {
	srv, s := newFeedServer(t)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return s.Count() == 1 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	conn.Close()

	require.Eventually(t, func() bool { return s.Count() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestHealth(t *testing.T) {
	srv, _ := newFeedServer(t)

	rsp, err := http.Get(srv.URL + "/v1/health")
	require.NoError(t, err)
	defer rsp.Body.Close()
	assert.Equal(t, http.StatusOK, rsp.StatusCode)

	var body Response
	require.NoError(t, json.NewDecoder(rsp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, body.Code)
}

func TestOriginChecker(t *testing.T) {
	s := ws.NewWs()
	h := NewHandler(s, OriginChecker([]string{"https://ops.example.com/"}))
	r := chi.NewRouter()
	r.Get("/v1/ws", h.HandleWebSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"

	conn, rsp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example.com"}})
	if conn != nil {
		conn.Close()
	}
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, rsp.StatusCode)

	conn, _, err = websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://ops.example.com"}})
	require.NoError(t, err)
	conn.Close()

	conn, _, err = websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	conn.Close()
}
