package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedItinerary = errors.New("malformed itinerary")

// ItineraryDay is the canonical itinerary entry.
type ItineraryDay struct {
	Day        int      `json:"day"             validate:"min=1"`
	Title      string   `json:"title,omitempty"`
	Activities []string `json:"activities"`
}

// storedDay accepts both stored shapes: {day, title, description} written by
// the first catalog import and {day, activities} written since.
type storedDay struct {
	Day         int       `json:"day"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Activities  *[]string `json:"activities"`
}

// ParseItinerary reads a stored itinerary column. The column may also hold
// the whole array encoded as a JSON string.
func ParseItinerary(raw []byte) ([]ItineraryDay, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedItinerary, err)
		}
		inner = strings.TrimSpace(inner)
		if strings.HasPrefix(inner, `"`) {
			return nil, fmt.Errorf("%w: nested string encoding", ErrMalformedItinerary)
		}
		return ParseItinerary([]byte(inner))
	}

	var stored []storedDay
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedItinerary, err)
	}

	days := make([]ItineraryDay, 0, len(stored))
	for i, d := range stored {
		if d.Day < 1 {
			return nil, fmt.Errorf("%w: entry %d has day %d", ErrMalformedItinerary, i, d.Day)
		}
		day := ItineraryDay{Day: d.Day, Title: d.Title, Activities: []string{}}
		switch {
		case d.Activities != nil && d.Description != nil:
			return nil, fmt.Errorf("%w: entry %d has both description and activities", ErrMalformedItinerary, i)
		case d.Activities != nil:
			day.Activities = append(day.Activities, *d.Activities...)
		case d.Description != nil && *d.Description != "":
			day.Activities = append(day.Activities, *d.Description)
		}
		days = append(days, day)
	}
	return days, nil
}

// EncodeItinerary writes days in the canonical shape.
func EncodeItinerary(days []ItineraryDay) ([]byte, error) {
	if len(days) == 0 {
		return []byte("[]"), nil
	}
	out := make([]ItineraryDay, len(days))
	for i, d := range days {
		if d.Day < 1 {
			return nil, fmt.Errorf("%w: entry %d has day %d", ErrMalformedItinerary, i, d.Day)
		}
		if d.Activities == nil {
			d.Activities = []string{}
		}
		out[i] = d
	}
	return json.Marshal(out)
}
