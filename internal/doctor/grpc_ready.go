package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/dicta-app/dicta/internal/config"
)

// checkControlGRPC dials the service control-plane endpoint and queries the
// standard gRPC health service. An endpoint that is reachable but does not
// implement health checking still passes.
func checkControlGRPC(ctx context.Context, cfg config.Config) Check {
	endpoint := strings.TrimSpace(cfg.Backend.ControlGRPC)
	if endpoint == "" {
		return Check{Name: "backend.control", Pass: true, Message: "control endpoint not configured; skipped"}
	}

	conn, err := grpc.NewClient(
		endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return Check{Name: "backend.control", Pass: false, Message: fmt.Sprintf("dial %q: %v", endpoint, err)}
	}
	defer conn.Close()

	readyCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	conn.Connect()
	if err := waitForReady(readyCtx, conn); err != nil {
		return Check{Name: "backend.control", Pass: false, Message: fmt.Sprintf("connect %q: %v", endpoint, err)}
	}

	health := grpc_health_v1.NewHealthClient(conn)
	resp, err := health.Check(readyCtx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		if status.Code(err) == codes.Unimplemented {
			return Check{Name: "backend.control", Pass: true, Message: fmt.Sprintf("reachable at %s (no health service)", endpoint)}
		}
		return Check{Name: "backend.control", Pass: false, Message: fmt.Sprintf("health check: %v", err)}
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		return Check{Name: "backend.control", Pass: false, Message: fmt.Sprintf("health status %s", resp.GetStatus())}
	}
	return Check{Name: "backend.control", Pass: true, Message: fmt.Sprintf("serving at %s", endpoint)}
}

// waitForReady blocks until the gRPC connection enters Ready or fails.
func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("grpc connection entered shutdown state")
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("grpc readiness wait timed out in state %s", state.String())
		}
	}
}
