package services

import (
	"github.com/dzoniops/booking-service/models"
	"github.com/dzoniops/booking-service/utils"
)

// checkItem validates a new catalog item. Details sections of other kinds
// are dropped.
func checkItem(item *models.CatalogItem) error {
	if err := checkFields(&item.ItemBase); err != nil {
		return err
	}
	switch item.Kind {
	case models.KindTour:
		item.Lodging, item.Capacity = nil, nil
	case models.KindHotel:
		item.Tour, item.Capacity = nil, nil
	case models.KindRental:
		item.Tour = nil
	}
	switch item.Kind {
	case models.KindTour:
		if item.Tour == nil {
			return &ValidationError{Field: "tour", Reason: "is required"}
		}
		return checkFields(item.Tour)
	case models.KindRental:
		if item.Capacity == nil {
			return &ValidationError{Field: "capacity", Reason: "is required"}
		}
		if err := checkFields(item.Capacity); err != nil {
			return err
		}
	}
	if item.Lodging == nil {
		return &ValidationError{Field: "lodging", Reason: "is required"}
	}
	return checkFields(item.Lodging)
}

func checkFields(v any) error {
	if err := utils.Validate.Struct(v); err != nil {
		if fe, ok := utils.FirstInvalid(err); ok {
			return &ValidationError{Field: fe.Field(), Reason: utils.Describe(fe)}
		}
		return err
	}
	return nil
}
