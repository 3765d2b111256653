package utils

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Validate is shared by every caller; validator caches struct metadata.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their wire names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidationCtx("not-past", DateNotPast)
	return v
}

type todayKey struct{}

// WithToday fixes the day the not-past rule compares against. Without it
// the rule uses the current UTC day.
func WithToday(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, todayKey{}, now)
}

// DateNotPast accepts YYYY-MM-DD dates on or after today. Unparseable
// values pass; the datetime rule reports them.
func DateNotPast(ctx context.Context, fl validator.FieldLevel) bool {
	date, err := time.Parse(time.DateOnly, fl.Field().String())
	if err != nil {
		return true
	}
	now, ok := ctx.Value(todayKey{}).(time.Time)
	if !ok {
		now = time.Now()
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !date.Before(today)
}

// FirstInvalid returns the first failing field in declaration order.
func FirstInvalid(err error) (validator.FieldError, bool) {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return nil, false
	}
	return verrs[0], true
}

// Describe turns a field error into a message fit for the booking form.
func Describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_unless", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "not-past":
		return "must not be in the past"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
