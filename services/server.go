package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dzoniops/booking-service/models"
	"github.com/dzoniops/booking-service/rpc"
)

// CatalogStore is the data store holding the catalog and bookings.
type CatalogStore interface {
	BookingStore
	ListCatalog(ctx context.Context, kind models.Kind, destinationID string) ([]models.CatalogItem, error)
	GetByID(ctx context.Context, kind models.Kind, id string) (*models.CatalogItem, error)
	ListDestinations(ctx context.Context) ([]models.Destination, error)
	GetDestination(ctx context.Context, id string) (*models.Destination, error)
	CreateDestination(ctx context.Context, d *models.Destination) error
	CreateCatalogItem(ctx context.Context, item *models.CatalogItem) error
}

type Server struct {
	Store    CatalogStore
	Bookings *BookingService
	Logger   log.Logger
}

var _ rpc.BookingServiceServer = (*Server)(nil)

func (s *Server) SubmitBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var form models.BookingForm
	if err := rpc.Decode(req, &form); err != nil {
		return nil, s.decodeError(err)
	}

	// Report form mistakes before the item lookup can mask them.
	if err := s.Bookings.Validate(ctx, &form); err != nil {
		return nil, s.fail(err)
	}
	item, err := s.Store.GetByID(ctx, models.Kind(form.BookingType), form.ItemID)
	if err != nil {
		return nil, s.fail(err)
	}

	sub, err := s.Bookings.Submit(ctx, form, QuoteFor(item))
	if err != nil {
		return nil, s.fail(err)
	}
	return s.encode(rpc.SubmitBookingResponse{
		Booking:    *sub.Booking,
		Summary:    sub.Summary,
		HandoffURL: sub.HandoffURL,
	})
}

func (s *Server) ListCatalog(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in rpc.ListCatalogRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, s.decodeError(err)
	}
	kind, ok := models.ParseKind(in.Kind)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown catalog kind %q", in.Kind)
	}
	items, err := s.Store.ListCatalog(ctx, kind, in.DestinationID)
	if err != nil {
		return nil, s.fail(err)
	}
	if items == nil {
		items = []models.CatalogItem{}
	}
	return s.encode(rpc.ListCatalogResponse{Items: items})
}

func (s *Server) GetCatalogItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in rpc.GetCatalogItemRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, s.decodeError(err)
	}
	kind, ok := models.ParseKind(in.Kind)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown catalog kind %q", in.Kind)
	}
	item, err := s.Store.GetByID(ctx, kind, in.ID)
	if err != nil {
		return nil, s.fail(err)
	}
	return s.encode(item)
}

func (s *Server) ListDestinations(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	destinations, err := s.Store.ListDestinations(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	if destinations == nil {
		destinations = []models.Destination{}
	}
	return s.encode(rpc.ListDestinationsResponse{Destinations: destinations})
}

func (s *Server) GetDestination(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in rpc.GetDestinationRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, s.decodeError(err)
	}
	destination, err := s.Store.GetDestination(ctx, in.ID)
	if err != nil {
		return nil, s.fail(err)
	}
	return s.encode(destination)
}

func (s *Server) CreateDestination(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var destination models.Destination
	if err := rpc.Decode(req, &destination); err != nil {
		return nil, s.decodeError(err)
	}
	destination.ID = ""
	destination.CreatedAt = time.Time{}
	destination.Name = strings.TrimSpace(destination.Name)
	if err := checkFields(&destination); err != nil {
		return nil, s.fail(err)
	}
	if err := s.Store.CreateDestination(ctx, &destination); err != nil {
		return nil, s.fail(err)
	}
	level.Info(s.Logger).Log("msg", "destination created", "destination_id", destination.ID)
	return s.encode(destination)
}

func (s *Server) CreateCatalogItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var item models.CatalogItem
	if err := rpc.Decode(req, &item); err != nil {
		return nil, s.decodeError(err)
	}
	kind, ok := models.ParseKind(string(item.Kind))
	if !ok {
		return nil, s.fail(&ValidationError{Field: "kind", Reason: "must be one of tour, hotel, rental"})
	}
	item.Kind = kind
	item.ID = ""
	item.CreatedAt = time.Time{}
	item.Destination = nil
	item.Name = strings.TrimSpace(item.Name)
	if err := checkItem(&item); err != nil {
		return nil, s.fail(err)
	}

	if item.DestinationID != nil {
		destination, err := s.Store.GetDestination(ctx, *item.DestinationID)
		if errors.Is(err, models.ErrNotFound) {
			return nil, s.fail(&ValidationError{Field: "destination_id", Reason: "unknown destination"})
		}
		if err != nil {
			return nil, s.fail(err)
		}
		item.Destination = destination
	}

	if err := s.Store.CreateCatalogItem(ctx, &item); err != nil {
		return nil, s.fail(err)
	}
	level.Info(s.Logger).Log("msg", "catalog item created", "kind", item.Kind, "item_id", item.ID)
	return s.encode(item)
}

func (s *Server) fail(err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal || status.Code(st) == codes.Unavailable {
		level.Error(s.Logger).Log("msg", "request failed", "err", err)
	}
	return st
}

func (s *Server) decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return toStatus(&ValidationError{Field: typeErr.Field, Reason: "has the wrong type"})
	}
	return status.Error(codes.InvalidArgument, "malformed request")
}

func (s *Server) encode(v any) (*structpb.Struct, error) {
	st, err := rpc.Encode(v)
	if err != nil {
		return nil, s.fail(err)
	}
	return st, nil
}
