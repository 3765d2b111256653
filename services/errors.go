package services

import (
	"errors"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dzoniops/booking-service/models"
)

// ValidationError names the first form field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PricingError means a validated form could still not be priced.
type PricingError struct {
	Err error
}

func (e *PricingError) Error() string { return "pricing failed: " + e.Err.Error() }
func (e *PricingError) Unwrap() error { return e.Err }

// PersistenceError is a failed booking insert. Nothing was handed off.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "booking not saved: " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

func toStatus(err error) error {
	var (
		verr  *ValidationError
		perr  *PersistenceError
		prerr *PricingError
	)
	switch {
	case errors.As(err, &verr):
		st := status.New(codes.InvalidArgument, verr.Error())
		detailed, derr := st.WithDetails(&errdetails.BadRequest{
			FieldViolations: []*errdetails.BadRequest_FieldViolation{
				{Field: verr.Field, Description: verr.Reason},
			},
		})
		if derr != nil {
			return st.Err()
		}
		return detailed.Err()
	case errors.Is(err, models.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &perr):
		return status.Error(codes.Unavailable, "booking could not be saved, please try again")
	case errors.As(err, &prerr):
		return status.Error(codes.Internal, "booking could not be priced")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
