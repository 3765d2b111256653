// Package rpc describes the booking.v1.BookingService gRPC service. Request
// and response bodies travel as google.protobuf.Struct holding the JSON form
// of the types below, so no generated code is needed on either side.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dzoniops/booking-service/models"
)

const ServiceName = "booking.v1.BookingService"

const (
	MethodSubmitBooking    = "SubmitBooking"
	MethodListCatalog      = "ListCatalog"
	MethodGetCatalogItem   = "GetCatalogItem"
	MethodListDestinations = "ListDestinations"
	MethodGetDestination   = "GetDestination"

	MethodCreateDestination = "CreateDestination"
	MethodCreateCatalogItem = "CreateCatalogItem"
)

func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type ListCatalogRequest struct {
	Kind          string `json:"kind"`
	DestinationID string `json:"destination_id,omitempty"`
}

type ListCatalogResponse struct {
	Items []models.CatalogItem `json:"items"`
}

type GetCatalogItemRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type GetDestinationRequest struct {
	ID string `json:"id"`
}

type ListDestinationsResponse struct {
	Destinations []models.Destination `json:"destinations"`
}

type SubmitBookingResponse struct {
	Booking    models.Booking `json:"booking"`
	Summary    string         `json:"summary"`
	HandoffURL string         `json:"handoff_url"`
}

// Encode converts v, which must marshal to a JSON object, into a Struct.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(b, st); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return st, nil
}

// Decode fills v from a Struct. json.UnmarshalTypeError is returned as is
// so callers can report the offending field.
func Decode(st *structpb.Struct, v any) error {
	if st == nil {
		st = &structpb.Struct{}
	}
	b, err := protojson.Marshal(st)
	if err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return json.Unmarshal(b, v)
}

type BookingServiceServer interface {
	SubmitBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCatalog(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCatalogItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDestinations(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDestination(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateDestination(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCatalogItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type unaryCall func(BookingServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) func(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BookingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BookingServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: MethodSubmitBooking,
			Handler:    unaryHandler(MethodSubmitBooking, BookingServiceServer.SubmitBooking),
		},
		{
			MethodName: MethodListCatalog,
			Handler:    unaryHandler(MethodListCatalog, BookingServiceServer.ListCatalog),
		},
		{
			MethodName: MethodGetCatalogItem,
			Handler:    unaryHandler(MethodGetCatalogItem, BookingServiceServer.GetCatalogItem),
		},
		{
			MethodName: MethodListDestinations,
			Handler:    unaryHandler(MethodListDestinations, BookingServiceServer.ListDestinations),
		},
		{
			MethodName: MethodGetDestination,
			Handler:    unaryHandler(MethodGetDestination, BookingServiceServer.GetDestination),
		},
		{
			MethodName: MethodCreateDestination,
			Handler:    unaryHandler(MethodCreateDestination, BookingServiceServer.CreateDestination),
		},
		{
			MethodName: MethodCreateCatalogItem,
			Handler:    unaryHandler(MethodCreateCatalogItem, BookingServiceServer.CreateCatalogItem),
		},
	},
	Streams: []grpc.StreamDesc{},
}
