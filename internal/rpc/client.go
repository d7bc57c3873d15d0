package rpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cuemby/rcspd/internal/rpc/rcspdpb"
)

// Client wraps the rcspdpb Scheduler gRPC client for CLI/library use. This
// domain has no cluster certificate authority, so unlike the mTLS dial this
// module's gRPC stack was originally built around, Client always connects
// with insecure transport credentials — the same credentials.insecure
// pattern already used for an unauthenticated handshake elsewhere in that
// lineage.
type Client struct {
	conn   *grpc.ClientConn
	client rcspdpb.SchedulerClient
}

// NewClient dials addr and returns a ready Client.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &Client{conn: conn, client: rcspdpb.NewSchedulerClient(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Schedule invokes the Schedule RPC with a bounded deadline.
func (c *Client) Schedule(ctx context.Context, req *rcspdpb.ScheduleRequest) (*rcspdpb.ScheduleResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return c.client.Schedule(ctx, req)
}
