package transport

import (
	"context"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/metrics"
	"github.com/reklamap/recommender/internal/profile"
	"github.com/reklamap/recommender/internal/recommend"
	"github.com/reklamap/recommender/internal/signals"
)

type harness struct {
	client  *Client
	metrics *metrics.Metrics
	logs    *observer.ObservedLogs
}

func startServer(t *testing.T) harness {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	core, logs := observer.New(zapcore.InfoLevel)
	m := metrics.New(prometheus.NewRegistry())

	srv := grpc.NewServer()
	RegisterRecommenderServer(srv, NewServer(recommend.New(profile.MustRegistry(), ""), zap.New(core), m))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewClient("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return harness{client: c, metrics: m, logs: logs}
}

func TestRecommend_RoundTrip(t *testing.T) {
	h := startServer(t)
	s := signals.New(map[string]signals.Value{
		"q1_possession": signals.One("purchased from another"),
		"q2_nature":     signals.Many("Lot was illegally sold"),
		"q9_claim_docs": signals.One("no"),
	})

	got, err := h.client.Recommend(context.Background(), "lot", s)
	require.NoError(t, err)
	want := recommend.Run(profile.Lot(), s)

	assert.Equal(t, "lot", got.Profile)
	assert.Equal(t, want.Recommendation.Primary, got.Recommendation.Primary)
	assert.Equal(t, want.Recommendation.Secondary, got.Recommendation.Secondary)
	assert.InDelta(t, want.Scores[action.OutOfJurisdiction], got.Scores[action.OutOfJurisdiction], 1e-12)
	assert.Equal(t, want.Narrative, got.Narrative)
	assert.Equal(t, want.Reasons, got.Reasons)
	assert.Equal(t, want.Routing, got.Routing)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RecommendationsTotal.WithLabelValues("lot", string(want.Recommendation.Primary))))
	require.Equal(t, 1, h.logs.FilterMessage("recommendation").Len())
}

func TestRecommend_DetectsProfile(t *testing.T) {
	h := startServer(t)
	got, err := h.client.Recommend(context.Background(), "", signals.New(map[string]signals.Value{
		"ongoing_development": signals.One("Yes"),
	}))
	require.NoError(t, err)
	assert.Equal(t, "boundary", got.Profile)
	assert.Equal(t, []string{"government_project"}, got.Overrides)
}

func TestRecommend_InvalidArgument(t *testing.T) {
	h := startServer(t)
	tests := []struct {
		name    string
		profile string
		signals signals.SignalSet
	}{
		{name: "unknown profile", profile: "garden"},
		{name: "unrecognized schema", signals: signals.New(map[string]signals.Value{"color": signals.One("red")})},
		{name: "ambiguous schema", signals: signals.New(map[string]signals.Value{"description": signals.One("x")})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.client.Recommend(context.Background(), tt.profile, tt.signals)
			require.Error(t, err)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.RequestErrorsTotal.WithLabelValues("InvalidArgument")))
}

func TestRecommend_RejectsMalformedSignals(t *testing.T) {
	srv := NewServer(recommend.New(profile.MustRegistry(), ""), zap.NewNop(), metrics.New(prometheus.NewRegistry()))
	req, err := structpb.NewStruct(map[string]any{
		"profile": "lot",
		"signals": map[string]any{"q1_possession": 42.0},
	})
	require.NoError(t, err)

	_, err = srv.Recommend(context.Background(), req)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
