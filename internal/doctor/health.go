package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/rehearse/internal/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// checkRecognizer asks the external recognition service for its gRPC health.
// An unset address means recognized text only arrives over IPC.
func checkRecognizer(ctx context.Context, cfg config.Config) Check {
	addr := strings.TrimSpace(cfg.Recognizer.HealthAddr)
	if addr == "" {
		return Check{Name: "recognizer", Pass: true, Message: "health_addr not set; text is pushed over IPC"}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	status, err := probeHealth(ctx, addr)
	if err != nil {
		return Check{Name: "recognizer", Pass: false, Message: fmt.Sprintf("%s: %v", addr, err)}
	}
	if status != healthpb.HealthCheckResponse_SERVING {
		return Check{Name: "recognizer", Pass: false, Message: fmt.Sprintf("%s reports %s", addr, status)}
	}
	return Check{Name: "recognizer", Pass: true, Message: fmt.Sprintf("serving at %s", addr)}
}

func probeHealth(ctx context.Context, addr string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	conn.Connect()
	if err := waitForReady(ctx, conn); err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("health check: %w", err)
	}
	return resp.GetStatus(), nil
}

// waitForReady blocks until the connection is Ready or ctx expires.
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
