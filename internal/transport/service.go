package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service-desc

const (
	ServiceName     = "recommender.v1.Recommender"
	RecommendMethod = "/" + ServiceName + "/Recommend"
)

// RecommenderServer answers Recommend calls. Request and response are
// google.protobuf.Struct so the presentation layer can speak JSON.
type RecommenderServer interface {
	Recommend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes recommender.v1.Recommender for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecommenderServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Recommend", Handler: recommendHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "recommender/v1/recommender.proto",
}

// RegisterRecommenderServer attaches srv to s.
func RegisterRecommenderServer(s grpc.ServiceRegistrar, srv RecommenderServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func recommendHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecommenderServer).Recommend(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RecommendMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RecommenderServer).Recommend(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion service-desc

// #region struct-codec

// toStruct converts any JSON-encodable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("decode struct: %w", err)
	}
	return st, nil
}

// fromStruct decodes st into out through its JSON form.
func fromStruct(st *structpb.Struct, out any) error {
	data, err := protojson.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode struct: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// #endregion struct-codec
