package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DateLayout is the wire format of booking dates.
const DateLayout = "2006-01-02"

type BookingStatus string

const (
	PENDING   BookingStatus = "pending"
	CONFIRMED BookingStatus = "confirmed"
	CANCELLED BookingStatus = "cancelled"
)

type Booking struct {
	ID              string        `json:"id"                         gorm:"type:uuid;primaryKey"`
	BookingType     Kind          `json:"booking_type"               gorm:"not null"`
	ItemID          string        `json:"item_id"                    gorm:"not null;index"`
	GuestName       string        `json:"guest_name"                 gorm:"not null"`
	GuestEmail      string        `json:"guest_email"                gorm:"not null"`
	GuestPhone      string        `json:"guest_phone"                gorm:"not null"`
	GuestCountry    string        `json:"guest_country"              gorm:"not null"`
	NumberOfGuests  int64         `json:"number_of_guests"           gorm:"not null;check:number_of_guests >= 1"`
	StartDate       time.Time     `json:"start_date"                 gorm:"type:date;not null"`
	EndDate         time.Time     `json:"end_date"                   gorm:"type:date;not null"`
	TotalPrice      int64         `json:"total_price"                gorm:"not null"`
	DepositAmount   int64         `json:"deposit_amount"             gorm:"not null"`
	SpecialRequests string        `json:"special_requests,omitempty"`
	Status          BookingStatus `json:"status"                     gorm:"not null;default:pending"`
	CreatedAt       time.Time     `json:"created_at"`
}

func (b *Booking) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// BookingForm is a raw booking submission. Field order is the order in which
// validation failures are reported.
type BookingForm struct {
	BookingType     string `json:"booking_type"     validate:"oneof=tour hotel rental"`
	ItemID          string `json:"item_id"          validate:"notblank"`
	GuestName       string `json:"guest_name"       validate:"notblank"`
	GuestEmail      string `json:"guest_email"      validate:"notblank,email"`
	GuestPhone      string `json:"guest_phone"      validate:"notblank"`
	GuestCountry    string `json:"guest_country"    validate:"notblank"`
	NumberOfGuests  int64  `json:"number_of_guests" validate:"min=1,max=1000"`
	StartDate       string `json:"start_date"       validate:"required,datetime=2006-01-02,not-past"`
	EndDate         string `json:"end_date"         validate:"required_unless=BookingType tour,omitempty,datetime=2006-01-02"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

func (f *BookingForm) Normalize() {
	if k, ok := ParseKind(f.BookingType); ok {
		f.BookingType = string(k)
	}
	f.ItemID = strings.TrimSpace(f.ItemID)
	f.GuestName = strings.TrimSpace(f.GuestName)
	f.GuestEmail = strings.TrimSpace(f.GuestEmail)
	f.GuestPhone = strings.TrimSpace(f.GuestPhone)
	f.GuestCountry = strings.TrimSpace(f.GuestCountry)
	f.StartDate = strings.TrimSpace(f.StartDate)
	f.EndDate = strings.TrimSpace(f.EndDate)
	f.SpecialRequests = strings.TrimSpace(f.SpecialRequests)
}
