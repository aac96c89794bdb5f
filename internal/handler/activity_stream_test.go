package handler_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/observability"
)

func startServer(t *testing.T, app *fiber.App) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	t.Cleanup(func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	})

	return "ws://" + listener.Addr().String()
}

func TestActivityStreamPushesRecordedActivities(t *testing.T) {
	h := newHarness(t)
	adminToken := h.admin(t)
	base := startServer(t, h.app)

	baseline := testutil.ToFloat64(observability.ActivityStreamClients())

	header := http.Header{fiber.HeaderAuthorization: {"Bearer " + adminToken}}
	conn, resp, err := websocket.DefaultDialer.Dial(base+"/api/activities/ws", header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(observability.ActivityStreamClients()) == baseline+1
	}, 2*time.Second, 10*time.Millisecond)

	h.feed.Publish(context.Background(), dto.ActivityResponse{ID: 77, Action: "Approved exam paper: Finals", Type: models.ActivityPaper})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var received dto.ActivityResponse
	require.NoError(t, conn.ReadJSON(&received))
	require.Equal(t, uint(77), received.ID)
	require.Equal(t, "Approved exam paper: Finals", received.Action)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(observability.ActivityStreamClients()) == baseline
	}, 2*time.Second, 10*time.Millisecond)
}

func TestActivityStreamRequiresAdminUpgrade(t *testing.T) {
	h := newHarness(t)
	adminToken := h.admin(t)
	_, facultyToken := h.faculty(t, "fac@example.com", "FAC0001")

	expect(t, h.do(t, http.MethodGet, "/api/activities/ws", facultyToken, nil), fiber.StatusForbidden, nil)
	expect(t, h.do(t, http.MethodGet, "/api/activities/ws", "", nil), fiber.StatusUnauthorized, nil)

	plain := h.do(t, http.MethodGet, "/api/activities/ws", adminToken, nil)
	require.Equal(t, fiber.StatusUpgradeRequired, plain.StatusCode)

	base := startServer(t, h.app)
	_, resp, err := websocket.DefaultDialer.Dial(base+"/api/activities/ws", http.Header{fiber.HeaderAuthorization: {"Bearer " + facultyToken}})
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
