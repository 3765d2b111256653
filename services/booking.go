package services

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dzoniops/booking-service/config"
	"github.com/dzoniops/booking-service/handoff"
	"github.com/dzoniops/booking-service/models"
	"github.com/dzoniops/booking-service/pricing"
	"github.com/dzoniops/booking-service/utils"
)

// BookingStore persists booking requests.
type BookingStore interface {
	InsertBooking(ctx context.Context, b *models.Booking) error
}

// Quote is what the caller knows about the booked item.
type Quote struct {
	ItemName     string
	UnitPrice    int64
	DurationDays int
}

func QuoteFor(item *models.CatalogItem) Quote {
	return Quote{
		ItemName:     item.Name,
		UnitPrice:    item.UnitPrice(),
		DurationDays: item.DurationDays(),
	}
}

type Submission struct {
	Booking    *models.Booking
	Summary    string
	HandoffURL string
}

type BookingService struct {
	store     BookingStore
	cfg       config.Booking
	policy    pricing.Policy
	logger    log.Logger
	now       func() time.Time
	tracer    trace.Tracer
	submitted *prometheus.CounterVec
}

type Option func(*BookingService)

// WithClock replaces time.Now, which decides "today" and created_at.
func WithClock(now func() time.Time) Option {
	return func(s *BookingService) { s.now = now }
}

func NewBookingService(
	store BookingStore,
	cfg config.Booking,
	logger log.Logger,
	reg prometheus.Registerer,
	opts ...Option,
) *BookingService {
	s := &BookingService{
		store:  store,
		cfg:    cfg,
		policy: pricing.Policy{DepositPercent: cfg.DepositPercent},
		logger: log.With(logger, "component", "booking"),
		now:    time.Now,
		tracer: otel.Tracer("github.com/dzoniops/booking-service/services"),
		submitted: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "booking_submissions_total",
			Help: "Booking submissions by booking type and outcome.",
		}, []string{"booking_type", "outcome"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate normalizes the form and runs every check Submit runs before
// pricing.
func (s *BookingService) Validate(ctx context.Context, form *models.BookingForm) error {
	form.Normalize()
	if _, _, err := s.validate(ctx, form); err != nil {
		s.submitted.WithLabelValues(form.BookingType, "invalid").Inc()
		return err
	}
	return nil
}

// Submit validates, prices and persists one booking request and formats the
// handoff summary. Nothing is handed off unless the insert succeeded.
func (s *BookingService) Submit(
	ctx context.Context,
	form models.BookingForm,
	quote Quote,
) (*Submission, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.Submit")
	defer span.End()

	form.Normalize()
	kind := models.Kind(form.BookingType)
	span.SetAttributes(
		attribute.String("booking.type", form.BookingType),
		attribute.String("booking.item_id", form.ItemID),
	)

	start, end, err := s.validate(ctx, &form)
	if err != nil {
		s.submitted.WithLabelValues(form.BookingType, "invalid").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	total, deposit, end, err := s.price(kind, quote, start, end, form.NumberOfGuests)
	if err != nil {
		s.submitted.WithLabelValues(form.BookingType, "pricing_error").Inc()
		level.Error(s.logger).Log("msg", "pricing failed after validation", "item_id", form.ItemID, "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "pricing failed")
		return nil, &PricingError{Err: err}
	}

	booking := &models.Booking{
		BookingType:     kind,
		ItemID:          form.ItemID,
		GuestName:       form.GuestName,
		GuestEmail:      form.GuestEmail,
		GuestPhone:      form.GuestPhone,
		GuestCountry:    form.GuestCountry,
		NumberOfGuests:  form.NumberOfGuests,
		StartDate:       start,
		EndDate:         end,
		TotalPrice:      total,
		DepositAmount:   deposit,
		SpecialRequests: form.SpecialRequests,
		Status:          models.PENDING,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.store.InsertBooking(ctx, booking); err != nil {
		s.submitted.WithLabelValues(form.BookingType, "store_error").Inc()
		level.Error(s.logger).Log("msg", "failed to persist booking", "item_id", form.ItemID, "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, &PersistenceError{Err: err}
	}

	s.submitted.WithLabelValues(form.BookingType, "created").Inc()
	level.Info(s.logger).Log(
		"msg", "booking persisted",
		"booking_id", booking.ID,
		"booking_type", booking.BookingType,
		"total_price", booking.TotalPrice,
		"deposit_amount", booking.DepositAmount,
	)
	span.SetAttributes(attribute.String("booking.id", booking.ID))

	summary := s.Summary(booking, quote.ItemName)
	return &Submission{
		Booking:    booking,
		Summary:    summary,
		HandoffURL: handoff.WhatsAppLink(s.cfg.WhatsAppNumber, summary),
	}, nil
}

func (s *BookingService) validate(ctx context.Context, form *models.BookingForm) (start, end time.Time, err error) {
	if form.BookingType == string(models.KindTour) {
		// Tour end dates are derived from the tour's duration.
		form.EndDate = ""
	}
	if err := utils.Validate.StructCtx(utils.WithToday(ctx, s.now()), form); err != nil {
		if fe, ok := utils.FirstInvalid(err); ok {
			return start, end, &ValidationError{Field: fe.Field(), Reason: utils.Describe(fe)}
		}
		return start, end, err
	}

	start, _ = time.Parse(models.DateLayout, form.StartDate)

	if form.BookingType != string(models.KindTour) {
		end, _ = time.Parse(models.DateLayout, form.EndDate)
		if !end.After(start) {
			return start, end, &ValidationError{Field: "end_date", Reason: "must be after start_date"}
		}
	}
	return start, end, nil
}

func (s *BookingService) price(
	kind models.Kind,
	quote Quote,
	start, end time.Time,
	guests int64,
) (total, deposit int64, derivedEnd time.Time, err error) {
	derivedEnd = end
	if kind == models.KindTour {
		if derivedEnd, err = pricing.TourEndDate(start, quote.DurationDays); err != nil {
			return 0, 0, end, err
		}
	}
	if total, err = pricing.ComputeTotal(kind, quote.UnitPrice, start, derivedEnd, guests); err != nil {
		return 0, 0, end, err
	}
	if deposit, err = s.policy.Deposit(total); err != nil {
		return 0, 0, end, err
	}
	return total, deposit, derivedEnd, nil
}
