package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dzoniops/booking-service/models"
)

// Store is the postgres backed catalog and booking store.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListDestinations(ctx context.Context) ([]models.Destination, error) {
	var destinations []models.Destination
	if err := s.db.WithContext(ctx).Order("name").Find(&destinations).Error; err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	return destinations, nil
}

func (s *Store) GetDestination(ctx context.Context, id string) (*models.Destination, error) {
	if !validID(id) {
		return nil, fmt.Errorf("get destination %q: %w", id, models.ErrNotFound)
	}
	var destination models.Destination
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&destination).Error; err != nil {
		return nil, notFound("get destination", err)
	}
	return &destination, nil
}

// ListCatalog lists items of one kind, cheapest first. An empty
// destinationID lists every destination.
func (s *Store) ListCatalog(
	ctx context.Context,
	kind models.Kind,
	destinationID string,
) ([]models.CatalogItem, error) {
	if destinationID != "" && !validID(destinationID) {
		return []models.CatalogItem{}, nil
	}
	q := s.db.WithContext(ctx).Preload("Destination")
	if destinationID != "" {
		q = q.Where("destination_id = ?", destinationID)
	}

	switch kind {
	case models.KindTour:
		var tours []models.Tour
		if err := q.Order("price_per_person").Find(&tours).Error; err != nil {
			return nil, fmt.Errorf("list tours: %w", err)
		}
		items := make([]models.CatalogItem, 0, len(tours))
		for i := range tours {
			item, err := tours[i].Item()
			if err != nil {
				return nil, fmt.Errorf("tour %s: %w", tours[i].ID, err)
			}
			items = append(items, item)
		}
		return items, nil
	case models.KindHotel:
		var hotels []models.Hotel
		if err := q.Order("price_per_night").Find(&hotels).Error; err != nil {
			return nil, fmt.Errorf("list hotels: %w", err)
		}
		items := make([]models.CatalogItem, 0, len(hotels))
		for i := range hotels {
			items = append(items, hotels[i].Item())
		}
		return items, nil
	case models.KindRental:
		var rentals []models.RentalUnit
		if err := q.Order("price_per_night").Find(&rentals).Error; err != nil {
			return nil, fmt.Errorf("list rental units: %w", err)
		}
		items := make([]models.CatalogItem, 0, len(rentals))
		for i := range rentals {
			items = append(items, rentals[i].Item())
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unknown catalog kind %q", kind)
	}
}

func (s *Store) GetByID(ctx context.Context, kind models.Kind, id string) (*models.CatalogItem, error) {
	if !validID(id) {
		return nil, fmt.Errorf("get %s %q: %w", kind, id, models.ErrNotFound)
	}
	q := s.db.WithContext(ctx).Preload("Destination").Where("id = ?", id)

	var item models.CatalogItem
	switch kind {
	case models.KindTour:
		var tour models.Tour
		if err := q.First(&tour).Error; err != nil {
			return nil, notFound("get tour", err)
		}
		var err error
		if item, err = tour.Item(); err != nil {
			return nil, fmt.Errorf("tour %s: %w", id, err)
		}
	case models.KindHotel:
		var hotel models.Hotel
		if err := q.First(&hotel).Error; err != nil {
			return nil, notFound("get hotel", err)
		}
		item = hotel.Item()
	case models.KindRental:
		var rental models.RentalUnit
		if err := q.First(&rental).Error; err != nil {
			return nil, notFound("get rental unit", err)
		}
		item = rental.Item()
	default:
		return nil, fmt.Errorf("unknown catalog kind %q: %w", kind, models.ErrNotFound)
	}
	return &item, nil
}

// InsertBooking stores a new booking. The id is assigned here; CreatedAt
// set by the caller is kept.
func (s *Store) InsertBooking(ctx context.Context, b *models.Booking) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (s *Store) CreateDestination(ctx context.Context, d *models.Destination) error {
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("insert destination: %w", err)
	}
	return nil
}

// CreateCatalogItem inserts a tour, hotel or rental unit and copies the
// assigned id and timestamp back into item.
func (s *Store) CreateCatalogItem(ctx context.Context, item *models.CatalogItem) error {
	row, err := item.Row()
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Omit("Destination").Create(row).Error; err != nil {
		return fmt.Errorf("insert %s: %w", item.Kind, err)
	}
	switch r := row.(type) {
	case *models.Tour:
		item.ItemBase = r.ItemBase
	case *models.Hotel:
		item.ItemBase = r.ItemBase
	case *models.RentalUnit:
		item.ItemBase = r.ItemBase
	}
	return nil
}

func notFound(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// validID reports whether id can name a row. Postgres rejects malformed
// uuids with an error rather than an empty result.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
