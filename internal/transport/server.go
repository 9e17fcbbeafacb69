package transport

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/reklamap/recommender/internal/logging"
	"github.com/reklamap/recommender/internal/metrics"
	"github.com/reklamap/recommender/internal/profile"
	"github.com/reklamap/recommender/internal/recommend"
	"github.com/reklamap/recommender/internal/signals"
)

// Request is the decoded form of a Recommend call.
type Request struct {
	Profile     string            `json:"profile,omitempty"`
	ComplaintID string            `json:"complaint_id,omitempty"`
	Signals     signals.SignalSet `json:"signals"`
}

// Server implements RecommenderServer on top of a Recommender.
type Server struct {
	rec     *recommend.Recommender
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewServer wires rec with its logger and collectors.
func NewServer(rec *recommend.Recommender, log *zap.Logger, m *metrics.Metrics) *Server {
	return &Server{rec: rec, log: log, metrics: m, now: time.Now}
}

// #region recommend

// Recommend decodes {profile?, complaint_id?, signals}, runs the engine
// and returns the bundle as a Struct.
func (s *Server) Recommend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start := s.now()

	var in Request
	if err := fromStruct(req, &in); err != nil {
		return nil, s.fail(codes.InvalidArgument, "decode request: %v", err)
	}

	b, err := s.rec.Recommend(in.Profile, in.Signals)
	if err != nil {
		code := codes.Internal
		if errors.Is(err, profile.ErrUnknownProfile) || errors.Is(err, profile.ErrUnrecognizedSchema) || errors.Is(err, profile.ErrAmbiguousSchema) {
			code = codes.InvalidArgument
		}
		return nil, s.fail(code, "%v", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, s.fail(codes.Canceled, "%v", err)
	}

	out, err := toStruct(b)
	if err != nil {
		return nil, s.fail(codes.Internal, "encode bundle: %v", err)
	}

	s.metrics.Observe(b, s.now().Sub(start))
	extra := []zap.Field{}
	if in.ComplaintID != "" {
		extra = append(extra, zap.String("complaint_id", in.ComplaintID))
	}
	logging.LogRecommendation(s.log, b, extra...)
	return out, nil
}

// #endregion recommend

func (s *Server) fail(code codes.Code, format string, args ...any) error {
	err := status.Errorf(code, format, args...)
	s.metrics.ObserveError(code.String())
	s.log.Warn("recommend rejected", zap.String("code", code.String()), zap.Error(err))
	return err
}
