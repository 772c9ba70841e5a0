package routes

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/idcard-services/internal/cardsvc/service"
	"github.com/avvvet/idcard-services/internal/cardsvc/token"
	"github.com/avvvet/idcard-services/internal/comm"
	"github.com/avvvet/idcard-services/internal/feedsvc/handlers"
	"github.com/avvvet/idcard-services/internal/feedsvc/ws"
)

var feedSecret = []byte("feed-routes-secret-012345")

func newSecuredFeed(t *testing.T, allowList []string) (*httptest.Server, *token.Service) {
	t.Helper()
	tokens, err := token.New(feedSecret)
	require.NoError(t, err)

	r := chi.NewRouter()
	h := handlers.NewHandler(ws.NewWs(), nil)
	SetRoutes(r, h, tokens.Auth(), service.NewOperatorGate(allowList).IsAuthorized)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, tokens
}

func wsURL(srv *httptest.Server, jwt string) string {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	if jwt != "" {
		u += "?jwt=" + url.QueryEscape(jwt)
	}
	return u
}

func TestFeedRefusesWithoutValidFeedToken(t *testing.T) {
	srv, tokens := newSecuredFeed(t, []string{"admin@example.com"})

	qr, _, err := tokens.Mint("card-1", "Ada")
	require.NoError(t, err)
	stranger, _, err := tokens.MintFeedAccess("intruder@example.com", time.Minute)
	require.NoError(t, err)

	other, err := token.New([]byte("another-feed-secret-98765"))
	require.NoError(t, err)
	forged, _, err := other.MintFeedAccess("admin@example.com", time.Minute)
	require.NoError(t, err)

	past, err := token.New(feedSecret, token.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))
	require.NoError(t, err)
	expired, _, err := past.MintFeedAccess("admin@example.com", time.Minute)
	require.NoError(t, err)

	cases := map[string]string{
		"no token":            "",
		"card token":          qr,
		"operator not listed": stranger,
		"foreign secret":      forged,
		"expired":             expired,
		"garbage":             "a.b.c",
	}
	for name, jwt := range cases {
		t.Run(name, func(t *testing.T) {
			conn, rsp, err := websocket.DefaultDialer.Dial(wsURL(srv, jwt), nil)
			if conn != nil {
				conn.Close()
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, rsp)
			assert.Equal(t, http.StatusUnauthorized, rsp.StatusCode)
		})
	}
}

func TestFeedAcceptsOperatorToken(t *testing.T) {
	srv, tokens := newSecuredFeed(t, []string{"admin@example.com"})

	raw, _, err := tokens.MintFeedAccess("Admin@Example.com", time.Minute)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, raw), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(comm.WSMessage{Type: comm.MsgPing}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var m comm.WSMessage
	require.NoError(t, conn.ReadJSON(&m))
	assert.Equal(t, comm.MsgPong, m.Type)

	header := http.Header{"Authorization": {"Bearer " + raw}}
	bearer, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), header)
	require.NoError(t, err)
	bearer.Close()
}

func TestHealthIsPublic(t *testing.T) {
	srv, _ := newSecuredFeed(t, nil)

	rsp, err := http.Get(srv.URL + "/v1/health")
	require.NoError(t, err)
	defer rsp.Body.Close()
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
}
