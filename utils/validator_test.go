package utils

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/require"
)

type form struct {
	Name   string `json:"guest_name"       validate:"notblank"`
	Email  string `json:"guest_email"      validate:"notblank,email"`
	Guests int64  `json:"number_of_guests" validate:"min=1"`
	Start  string `json:"start_date"       validate:"required,datetime=2006-01-02"`
}

func TestFirstInvalidFollowsFieldOrder(t *testing.T) {
	err := Validate.Struct(form{Name: "  ", Email: "nope", Guests: 0, Start: "01/06/2025"})

	fe, ok := FirstInvalid(err)
	require.True(t, ok)
	require.Equal(t, "guest_name", fe.Field())
	require.Equal(t, "is required", Describe(fe))
}

func TestDescribe(t *testing.T) {
	err := Validate.Struct(form{Name: "Amina", Email: "amina@example.com", Guests: 0, Start: "2025-06-01"})
	fe, ok := FirstInvalid(err)
	require.True(t, ok)
	require.Equal(t, "number_of_guests", fe.Field())
	require.Equal(t, "must be at least 1", Describe(fe))

	err = Validate.Struct(form{Name: "Amina", Email: "amina@example.com", Guests: 1, Start: "June 1"})
	fe, ok = FirstInvalid(err)
	require.True(t, ok)
	require.Equal(t, "start_date", fe.Field())
	require.Equal(t, "must be a date in YYYY-MM-DD format", Describe(fe))
}

func TestFirstInvalidOnValidStruct(t *testing.T) {
	err := Validate.Struct(form{Name: "Amina", Email: "amina@example.com", Guests: 2, Start: "2025-06-01"})

	require.NoError(t, err)
	_, ok := FirstInvalid(err)
	require.False(t, ok)
}

type stay struct {
	Start string `json:"start_date" validate:"required,datetime=2006-01-02,not-past"`
	End   string `json:"end_date"   validate:"required,datetime=2006-01-02"`
}

func TestDateNotPastUsesContextDay(t *testing.T) {
	ctx := WithToday(context.Background(), time.Date(2025, 5, 1, 23, 59, 0, 0, time.UTC))

	require.NoError(t, Validate.StructCtx(ctx, stay{Start: "2025-05-01", End: "2025-05-03"}))

	err := Validate.StructCtx(ctx, stay{Start: "2025-04-30", End: ""})
	fe, ok := FirstInvalid(err)
	require.True(t, ok)
	require.Equal(t, "start_date", fe.Field())
	require.Equal(t, "must not be in the past", Describe(fe))

	err = Validate.StructCtx(ctx, stay{Start: "30/04/2025", End: "2025-05-03"})
	fe, ok = FirstInvalid(err)
	require.True(t, ok)
	require.Equal(t, "datetime", fe.Tag())
}

func TestNewLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	_ = level.Info(logger).Log("msg", "hidden")
	_ = level.Warn(logger).Log("msg", "shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "msg=shown")
}
