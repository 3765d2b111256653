// Package pricing computes booking totals and deposits. It has no I/O.
package pricing

import (
	"errors"
	"math"
	"time"

	"github.com/dzoniops/booking-service/models"
)

var (
	ErrInvalidDateRange = errors.New("pricing: end date must be after start date")
	ErrInvalidInput     = errors.New("pricing: invalid pricing input")
)

const day = 24 * time.Hour

// DefaultDepositPercent is the share of the total held upfront.
const DefaultDepositPercent = 50

// ComputeTotal prices a booking in whole currency units. Tours are priced
// per person and ignore the dates; lodging is priced per night per guest
// with any partial day counted as a full night.
func ComputeTotal(kind models.Kind, unitPrice int64, start, end time.Time, guests int64) (int64, error) {
	if unitPrice < 0 || guests < 0 {
		return 0, ErrInvalidInput
	}
	switch kind {
	case models.KindTour:
		return mul(unitPrice, guests)
	case models.KindHotel, models.KindRental:
		nights, err := Nights(start, end)
		if err != nil {
			return 0, err
		}
		perGuest, err := mul(unitPrice, nights)
		if err != nil {
			return 0, err
		}
		return mul(perGuest, guests)
	default:
		return 0, ErrInvalidInput
	}
}

// Nights is ceil(end-start) in days. end must be strictly after start.
func Nights(start, end time.Time) (int64, error) {
	d := end.Sub(start)
	if d <= 0 {
		return 0, ErrInvalidDateRange
	}
	return int64((d + day - 1) / day), nil
}

// ComputeDeposit applies the default 50% deposit, rounding half up.
func ComputeDeposit(total int64) (int64, error) {
	return Policy{DepositPercent: DefaultDepositPercent}.Deposit(total)
}

// TourEndDate derives a tour's end date from its fixed duration.
func TourEndDate(start time.Time, durationDays int) (time.Time, error) {
	if durationDays < 1 {
		return time.Time{}, ErrInvalidInput
	}
	return start.AddDate(0, 0, durationDays), nil
}

type Policy struct {
	DepositPercent int64
}

// Deposit is round(total * percent / 100) with halves rounded up.
func (p Policy) Deposit(total int64) (int64, error) {
	if total < 0 || p.DepositPercent < 0 || p.DepositPercent > 100 {
		return 0, ErrInvalidInput
	}
	// Split total so that no intermediate product exceeds total.
	return total/100*p.DepositPercent + (total%100*p.DepositPercent+50)/100, nil
}

// mul multiplies non-negative amounts, failing instead of wrapping.
func mul(a, b int64) (int64, error) {
	if a != 0 && b > math.MaxInt64/a {
		return 0, ErrInvalidInput
	}
	return a * b, nil
}
