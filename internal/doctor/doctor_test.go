package doctor

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dicta-app/dicta/internal/config"
)

func TestReportOK(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "a", Pass: true},
		{Name: "b", Pass: true},
	}}
	require.True(t, report.OK())

	report.Checks = append(report.Checks, Check{Name: "c", Pass: false})
	require.False(t, report.OK())
}

func TestReportString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "config", Pass: true, Message: "loaded"},
		{Name: "audio.device", Pass: false, Message: "no device"},
	}}

	text := report.String()
	require.Contains(t, text, "[OK] config: loaded")
	require.Contains(t, text, "[FAIL] audio.device: no device")
	require.False(t, strings.HasSuffix(text, "\n"))
}

func TestCheckCommand(t *testing.T) {
	check := checkCommand([]string{"sh", "-c", "true"}, "clipboard_cmd")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "clipboard_cmd")

	check = checkCommand(nil, "clipboard_cmd")
	require.False(t, check.Pass)

	check = checkCommand([]string{"definitely-not-a-real-binary-48151623"}, "paste_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "not found in PATH")
}

func TestCheckBackendWS(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.Close()
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Backend.WebSocketURL = "ws" + strings.TrimPrefix(server.URL, "http")

	check := checkBackendWS(context.Background(), cfg)
	require.True(t, check.Pass, check.Message)
}

func TestCheckBackendWSUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.WebSocketURL = "ws://127.0.0.1:1/v1"

	check := checkBackendWS(context.Background(), cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "handshake failed")
}

func TestCheckControlGRPCSkippedWhenUnset(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.ControlGRPC = ""

	check := checkControlGRPC(context.Background(), cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "skipped")
}

func TestCheckControlGRPCServing(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := grpc.NewServer()
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	cfg := config.Default()
	cfg.Backend.ControlGRPC = listener.Addr().String()

	check := checkControlGRPC(context.Background(), cfg)
	require.True(t, check.Pass, check.Message)
	require.Contains(t, check.Message, "serving")
}

func TestCheckControlGRPCNotServing(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := grpc.NewServer()
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	cfg := config.Default()
	cfg.Backend.ControlGRPC = listener.Addr().String()

	check := checkControlGRPC(context.Background(), cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "NOT_SERVING")
}

func TestCheckControlGRPCUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.ControlGRPC = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()

	check := checkControlGRPC(ctx, cfg)
	require.False(t, check.Pass)
}
