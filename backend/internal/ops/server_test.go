package ops

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1024 * 1024

type fakePinger struct {
	down atomic.Bool
}

func (p *fakePinger) Ping(context.Context) error {
	if p.down.Load() {
		return errors.New("no reachable servers")
	}
	return nil
}

func TestHealthService(t *testing.T) {
	pinger := &fakePinger{}
	srv := NewServer(pinger, zap.NewNop())

	lis := bufconn.Listen(bufSize)
	go func() {
		_ = srv.GRPC.Serve(lis)
	}()
	defer srv.GRPC.Stop()

	conn, err := grpc.NewClient("passthrough://bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client := grpc_health_v1.NewHealthClient(conn)
	ctx := context.Background()
	req := &grpc_health_v1.HealthCheckRequest{Service: ServiceName}

	// --- 1. Before First Check ---
	t.Run("Starts Not Serving", func(t *testing.T) {
		resp, err := client.Check(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)
	})

	// --- 2. Store Reachable ---
	t.Run("Serving", func(t *testing.T) {
		assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, srv.Check(ctx))

		resp, err := client.Check(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)
	})

	// --- 3. Store Down ---
	t.Run("Store Down", func(t *testing.T) {
		pinger.down.Store(true)
		srv.Check(ctx)

		resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
		require.NoError(t, err)
		assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)
	})
}
