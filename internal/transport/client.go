package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/reklamap/recommender/internal/recommend"
	"github.com/reklamap/recommender/internal/signals"
)

// #region client-struct

// Client calls a remote recommender.v1.Recommender.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor

// NewClient connects to the recommender daemon at addr.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn wraps an existing connection. Close is then a no-op.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// #endregion constructor

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #region recommend

// Recommend sends s for the named profile (empty lets the server choose).
func (c *Client) Recommend(ctx context.Context, profileName string, s signals.SignalSet) (recommend.Bundle, error) {
	req, err := toStruct(Request{Profile: profileName, Signals: s})
	if err != nil {
		return recommend.Bundle{}, fmt.Errorf("recommend request: %w", err)
	}
	resp := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, RecommendMethod, req, resp); err != nil {
		return recommend.Bundle{}, fmt.Errorf("recommend rpc: %w", err)
	}
	var b recommend.Bundle
	if err := fromStruct(resp, &b); err != nil {
		return recommend.Bundle{}, fmt.Errorf("recommend response: %w", err)
	}
	return b, nil
}

// #endregion recommend
