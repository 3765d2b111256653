package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Kind tags both catalog items and the bookings made against them.
type Kind string

const (
	KindTour   Kind = "tour"
	KindHotel  Kind = "hotel"
	KindRental Kind = "rental"
)

// ParseKind accepts the legacy "airbnb" spelling for rental units.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindTour, KindHotel, KindRental:
		return k, true
	case "airbnb":
		return KindRental, true
	default:
		return k, false
	}
}

type Destination struct {
	ID          string                      `json:"id"          gorm:"type:uuid;primaryKey"`
	Name        string                      `json:"name"        gorm:"not null" validate:"notblank"`
	Description string                      `json:"description"`
	ImageURL    string                      `json:"image_url"`
	Highlights  datatypes.JSONSlice[string] `json:"highlights"`
	CreatedAt   time.Time                   `json:"created_at"`
}

func (d *Destination) BeforeCreate(*gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// ItemBase is the shape shared by tours, hotels and rental units.
type ItemBase struct {
	ID            string                      `json:"id"                       gorm:"type:uuid;primaryKey"`
	DestinationID *string                     `json:"destination_id,omitempty" gorm:"type:uuid;index"`
	Name          string                      `json:"name"                     gorm:"not null" validate:"notblank"`
	Description   string                      `json:"description"`
	ImageURL      string                      `json:"image_url"`
	Images        datatypes.JSONSlice[string] `json:"images"`
	CreatedAt     time.Time                   `json:"created_at"`
}

func (b *ItemBase) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

type TourDetails struct {
	DurationDays   int            `json:"duration_days"    validate:"min=1"`
	PricePerPerson int64          `json:"price_per_person" validate:"min=0"`
	MaxGroupSize   int            `json:"max_group_size"   validate:"min=1"`
	Included       []string       `json:"included"`
	Itinerary      []ItineraryDay `json:"itinerary"        validate:"dive"`
}

type LodgingDetails struct {
	PricePerNight int64    `json:"price_per_night" validate:"min=0"`
	Rating        float64  `json:"rating"          validate:"min=0,max=5"`
	Amenities     []string `json:"amenities"`
}

type RentalCapacity struct {
	MaxGuests int `json:"max_guests" validate:"min=1"`
	Bedrooms  int `json:"bedrooms"   validate:"min=0"`
	Bathrooms int `json:"bathrooms"  validate:"min=0"`
}

// CatalogItem is a tour, hotel or rental unit. Exactly one of Tour and
// Lodging is set; Capacity is set for rentals only.
type CatalogItem struct {
	Kind Kind `json:"kind"`
	ItemBase
	Destination *Destination    `json:"destination,omitempty"`
	Tour        *TourDetails    `json:"tour,omitempty"`
	Lodging     *LodgingDetails `json:"lodging,omitempty"`
	Capacity    *RentalCapacity `json:"capacity,omitempty"`
}

// UnitPrice is the per-person price of a tour or the nightly rate of lodging.
func (c *CatalogItem) UnitPrice() int64 {
	switch {
	case c.Tour != nil:
		return c.Tour.PricePerPerson
	case c.Lodging != nil:
		return c.Lodging.PricePerNight
	default:
		return 0
	}
}

func (c *CatalogItem) DurationDays() int {
	if c.Tour == nil {
		return 0
	}
	return c.Tour.DurationDays
}

type Tour struct {
	ItemBase
	Destination    *Destination                `gorm:"foreignKey:DestinationID"`
	DurationDays   int                         `gorm:"not null;check:duration_days >= 1"`
	PricePerPerson int64                       `gorm:"not null;check:price_per_person >= 0"`
	MaxGroupSize   int                         `gorm:"not null;check:max_group_size >= 1"`
	Included       datatypes.JSONSlice[string]
	Itinerary      datatypes.JSON
}

func (t *Tour) Item() (CatalogItem, error) {
	itinerary, err := ParseItinerary(t.Itinerary)
	if err != nil {
		return CatalogItem{}, err
	}
	return CatalogItem{
		Kind:        KindTour,
		ItemBase:    t.ItemBase,
		Destination: t.Destination,
		Tour: &TourDetails{
			DurationDays:   t.DurationDays,
			PricePerPerson: t.PricePerPerson,
			MaxGroupSize:   t.MaxGroupSize,
			Included:       t.Included,
			Itinerary:      itinerary,
		},
	}, nil
}

type Lodging struct {
	PricePerNight int64 `gorm:"not null;check:price_per_night >= 0"`
	Rating        float64
	Amenities     datatypes.JSONSlice[string]
}

func (l Lodging) details() *LodgingDetails {
	return &LodgingDetails{
		PricePerNight: l.PricePerNight,
		Rating:        l.Rating,
		Amenities:     l.Amenities,
	}
}

type Hotel struct {
	ItemBase
	Lodging
	Destination *Destination `gorm:"foreignKey:DestinationID"`
}

func (h *Hotel) Item() CatalogItem {
	return CatalogItem{
		Kind:        KindHotel,
		ItemBase:    h.ItemBase,
		Destination: h.Destination,
		Lodging:     h.Lodging.details(),
	}
}

type RentalUnit struct {
	ItemBase
	Lodging
	Destination *Destination `gorm:"foreignKey:DestinationID"`
	MaxGuests   int
	Bedrooms    int
	Bathrooms   int
}

func (r *RentalUnit) Item() CatalogItem {
	return CatalogItem{
		Kind:        KindRental,
		ItemBase:    r.ItemBase,
		Destination: r.Destination,
		Lodging:     r.Lodging.details(),
		Capacity: &RentalCapacity{
			MaxGuests: r.MaxGuests,
			Bedrooms:  r.Bedrooms,
			Bathrooms: r.Bathrooms,
		},
	}
}

var ErrIncompleteItem = errors.New("catalog item is missing its variant details")

// Row converts an item back into the storage row for its kind. Itineraries
// are always written in the canonical shape.
func (c *CatalogItem) Row() (any, error) {
	switch c.Kind {
	case KindTour:
		if c.Tour == nil {
			return nil, ErrIncompleteItem
		}
		itinerary, err := EncodeItinerary(c.Tour.Itinerary)
		if err != nil {
			return nil, err
		}
		return &Tour{
			ItemBase:       c.ItemBase,
			DurationDays:   c.Tour.DurationDays,
			PricePerPerson: c.Tour.PricePerPerson,
			MaxGroupSize:   c.Tour.MaxGroupSize,
			Included:       c.Tour.Included,
			Itinerary:      itinerary,
		}, nil
	case KindHotel:
		if c.Lodging == nil {
			return nil, ErrIncompleteItem
		}
		return &Hotel{ItemBase: c.ItemBase, Lodging: lodgingRow(c.Lodging)}, nil
	case KindRental:
		if c.Lodging == nil || c.Capacity == nil {
			return nil, ErrIncompleteItem
		}
		return &RentalUnit{
			ItemBase:  c.ItemBase,
			Lodging:   lodgingRow(c.Lodging),
			MaxGuests: c.Capacity.MaxGuests,
			Bedrooms:  c.Capacity.Bedrooms,
			Bathrooms: c.Capacity.Bathrooms,
		}, nil
	default:
		return nil, errors.New("unknown catalog kind " + string(c.Kind))
	}
}

func lodgingRow(d *LodgingDetails) Lodging {
	return Lodging{
		PricePerNight: d.PricePerNight,
		Rating:        d.Rating,
		Amenities:     d.Amenities,
	}
}
