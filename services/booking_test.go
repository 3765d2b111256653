package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dzoniops/booking-service/config"
	"github.com/dzoniops/booking-service/models"
	"github.com/dzoniops/booking-service/pricing"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) InsertBooking(ctx context.Context, b *models.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

var (
	bookingConfig = config.Booking{
		DepositPercent: 50,
		CurrencySymbol: "$",
		Paybill:        "222111",
		AccountNumber:  "2321644",
		WhatsAppNumber: "+254702612666",
	}
	may1 = time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
)

func newTestService(t *testing.T, store BookingStore) *BookingService {
	t.Helper()
	return NewBookingService(
		store,
		bookingConfig,
		log.NewNopLogger(),
		prometheus.NewRegistry(),
		WithClock(func() time.Time { return may1 }),
	)
}

func acceptingStore() *mockStore {
	store := &mockStore{}
	store.On("InsertBooking", mock.Anything, mock.AnythingOfType("*models.Booking")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Booking).ID = uuid.NewString()
		}).
		Return(nil)
	return store
}

func hotelForm() models.BookingForm {
	return models.BookingForm{
		BookingType:    "hotel",
		ItemID:         "f2a4f6a0-7f0e-4a53-9b0c-3d7f1fe0c001",
		GuestName:      "Amina Hassan",
		GuestEmail:     "amina@example.com",
		GuestPhone:     "+254700000001",
		GuestCountry:   "Kenya",
		NumberOfGuests: 2,
		StartDate:      "2025-06-01",
		EndDate:        "2025-06-04",
	}
}

func tourForm() models.BookingForm {
	return models.BookingForm{
		BookingType:    "tour",
		ItemID:         "a0e1b2c3-0000-4000-8000-000000000007",
		GuestName:      "John Smith",
		GuestEmail:     "john@example.com",
		GuestPhone:     "+447700900123",
		GuestCountry:   "United Kingdom",
		NumberOfGuests: 4,
		StartDate:      "2025-06-01",
	}
}

func TestSubmitHotelBooking(t *testing.T) {
	store := acceptingStore()
	s := newTestService(t, store)

	sub, err := s.Submit(context.Background(), hotelForm(), Quote{ItemName: "Serena Lodge", UnitPrice: 100})

	require.NoError(t, err)
	require.Equal(t, int64(600), sub.Booking.TotalPrice)
	require.Equal(t, int64(300), sub.Booking.DepositAmount)
	require.Equal(t, models.PENDING, sub.Booking.Status)
	require.Equal(t, models.KindHotel, sub.Booking.BookingType)
	require.Equal(t, may1, sub.Booking.CreatedAt)
	require.NotEmpty(t, sub.Booking.ID)
	store.AssertNumberOfCalls(t, "InsertBooking", 1)
	require.Equal(t, 1.0, testutil.ToFloat64(s.submitted.WithLabelValues("hotel", "created")))
}

func TestSubmitTourDerivesEndDate(t *testing.T) {
	store := acceptingStore()
	s := newTestService(t, store)
	form := tourForm()
	form.EndDate = "2025-07-30"

	sub, err := s.Submit(context.Background(), form, Quote{ItemName: "Great Migration", UnitPrice: 50000, DurationDays: 7})

	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), sub.Booking.EndDate)
	require.Equal(t, int64(200000), sub.Booking.TotalPrice)
	require.Equal(t, int64(100000), sub.Booking.DepositAmount)
}

func TestSubmitRejectsEndNotAfterStart(t *testing.T) {
	for _, kind := range []string{"hotel", "rental"} {
		for _, end := range []string{"2025-06-01", "2025-05-30"} {
			store := &mockStore{}
			s := newTestService(t, store)
			form := hotelForm()
			form.BookingType = kind
			form.EndDate = end

			sub, err := s.Submit(context.Background(), form, Quote{UnitPrice: 100})

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, "end_date", verr.Field)
			require.Nil(t, sub)
			store.AssertNotCalled(t, "InsertBooking", mock.Anything, mock.Anything)
		}
	}
}

func TestSubmitValidationOrder(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(f *models.BookingForm)
	}{
		{"guest_name", func(f *models.BookingForm) { f.GuestName = " " }},
		{"guest_email", func(f *models.BookingForm) { f.GuestEmail = "" }},
		{"guest_email", func(f *models.BookingForm) { f.GuestEmail = "not-an-email" }},
		{"guest_phone", func(f *models.BookingForm) { f.GuestPhone = "" }},
		{"guest_country", func(f *models.BookingForm) { f.GuestCountry = "" }},
		{"number_of_guests", func(f *models.BookingForm) { f.NumberOfGuests = 0 }},
		{"number_of_guests", func(f *models.BookingForm) { f.NumberOfGuests = 1001 }},
		{"number_of_guests", func(f *models.BookingForm) { f.NumberOfGuests = 2_000_000_000_000 }},
		{"start_date", func(f *models.BookingForm) { f.StartDate = "" }},
		{"start_date", func(f *models.BookingForm) { f.StartDate = "01/06/2025" }},
		{"start_date", func(f *models.BookingForm) { f.StartDate = "2025-04-30" }},
		{"start_date", func(f *models.BookingForm) { f.StartDate = "2025-04-01"; f.EndDate = "" }},
		{"start_date", func(f *models.BookingForm) { f.StartDate = "2025-04-01"; f.EndDate = "soon" }},
		{"end_date", func(f *models.BookingForm) { f.EndDate = "" }},
		{"end_date", func(f *models.BookingForm) { f.EndDate = "tomorrow" }},
		{"booking_type", func(f *models.BookingForm) { f.BookingType = "cruise" }},
		{"item_id", func(f *models.BookingForm) { f.ItemID = "" }},
	}
	for _, tc := range cases {
		store := &mockStore{}
		s := newTestService(t, store)
		form := hotelForm()
		tc.mutate(&form)

		_, err := s.Submit(context.Background(), form, Quote{UnitPrice: 100})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr, tc.field)
		require.Equal(t, tc.field, verr.Field)
		store.AssertNotCalled(t, "InsertBooking", mock.Anything, mock.Anything)
	}
}

func TestSubmitReportsFirstFailingField(t *testing.T) {
	s := newTestService(t, &mockStore{})
	form := hotelForm()
	form.GuestPhone = ""
	form.NumberOfGuests = 0
	form.EndDate = "2025-05-01"
	form.GuestName = ""

	_, err := s.Submit(context.Background(), form, Quote{UnitPrice: 100})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "guest_name", verr.Field)
	require.Equal(t, 1.0, testutil.ToFloat64(s.submitted.WithLabelValues("hotel", "invalid")))
}

func TestSubmitAcceptsLegacyRentalSpelling(t *testing.T) {
	s := newTestService(t, acceptingStore())
	form := hotelForm()
	form.BookingType = "airbnb"

	sub, err := s.Submit(context.Background(), form, Quote{ItemName: "Lamu house", UnitPrice: 80})

	require.NoError(t, err)
	require.Equal(t, models.KindRental, sub.Booking.BookingType)
	require.Equal(t, int64(480), sub.Booking.TotalPrice)
}

func TestSubmitPricingFailure(t *testing.T) {
	store := &mockStore{}
	s := newTestService(t, store)

	_, err := s.Submit(context.Background(), tourForm(), Quote{UnitPrice: 50000, DurationDays: 0})

	var perr *PricingError
	require.ErrorAs(t, err, &perr)
	require.ErrorIs(t, err, pricing.ErrInvalidInput)

	_, err = s.Submit(context.Background(), hotelForm(), Quote{UnitPrice: -5})
	require.ErrorAs(t, err, &perr)
	store.AssertNotCalled(t, "InsertBooking", mock.Anything, mock.Anything)
}

func TestSubmitRejectsTotalsThatOverflow(t *testing.T) {
	store := &mockStore{}
	s := newTestService(t, store)

	_, err := s.Submit(context.Background(), hotelForm(), Quote{UnitPrice: math.MaxInt64 / 2})

	var perr *PricingError
	require.ErrorAs(t, err, &perr)
	require.ErrorIs(t, err, pricing.ErrInvalidInput)
	store.AssertNotCalled(t, "InsertBooking", mock.Anything, mock.Anything)
}

func TestSubmitDepositIsHalfOfLargeTotal(t *testing.T) {
	s := newTestService(t, acceptingStore())
	form := tourForm()
	form.NumberOfGuests = 1000

	sub, err := s.Submit(context.Background(), form, Quote{ItemName: "Great Migration", UnitPrice: math.MaxInt64 / 1000, DurationDays: 7})

	require.NoError(t, err)
	require.Positive(t, sub.Booking.DepositAmount)
	require.Equal(t, (sub.Booking.TotalPrice+1)/2, sub.Booking.DepositAmount)
}

func TestSubmitPersistenceFailure(t *testing.T) {
	store := &mockStore{}
	boom := errors.New("connection refused")
	store.On("InsertBooking", mock.Anything, mock.Anything).Return(boom)
	s := newTestService(t, store)

	sub, err := s.Submit(context.Background(), hotelForm(), Quote{UnitPrice: 100})

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	require.ErrorIs(t, err, boom)
	require.Nil(t, sub)
	require.Equal(t, 1.0, testutil.ToFloat64(s.submitted.WithLabelValues("hotel", "store_error")))
}

// Duplicate submissions are not deduplicated; each one is a new booking.
func TestSubmitTwiceCreatesTwoBookings(t *testing.T) {
	store := acceptingStore()
	s := newTestService(t, store)

	first, err := s.Submit(context.Background(), hotelForm(), Quote{UnitPrice: 100})
	require.NoError(t, err)
	second, err := s.Submit(context.Background(), hotelForm(), Quote{UnitPrice: 100})
	require.NoError(t, err)

	require.NotEqual(t, first.Booking.ID, second.Booking.ID)
	store.AssertNumberOfCalls(t, "InsertBooking", 2)
}

func TestSummary(t *testing.T) {
	s := newTestService(t, acceptingStore())
	form := tourForm()
	form.SpecialRequests = "Vegetarian meals"

	sub, err := s.Submit(context.Background(), form, Quote{ItemName: "Great Migration", UnitPrice: 50000, DurationDays: 7})
	require.NoError(t, err)

	want := strings.Join([]string{
		"New Booking Request!",
		"",
		"Customer: John Smith",
		"Email: john@example.com",
		"Phone: +447700900123",
		"Country: United Kingdom",
		"Guests: 4",
		"Booking: Great Migration (tour)",
		"Dates: June 1st, 2025 - June 8th, 2025",
		"Total Price: $ 200,000",
		"Deposit Required: $ 100,000",
		"M-Pesa Paybill: 222111",
		"Account Number: 2321644",
		"Special Requests: Vegetarian meals",
		"",
		"Please confirm this booking.",
	}, "\n")
	require.Equal(t, want, sub.Summary)
	require.True(t, strings.HasPrefix(sub.HandoffURL, "https://wa.me/254702612666?text=New%20Booking%20Request"))
}

func TestSummaryOmitsEmptySpecialRequests(t *testing.T) {
	s := newTestService(t, acceptingStore())

	sub, err := s.Submit(context.Background(), hotelForm(), Quote{ItemName: "Serena Lodge", UnitPrice: 100})

	require.NoError(t, err)
	require.NotContains(t, sub.Summary, "Special Requests")
	require.Contains(t, sub.Summary, "Dates: June 1st, 2025 - June 4th, 2025\n")
}

func TestOrdinal(t *testing.T) {
	cases := map[int]string{1: "st", 2: "nd", 3: "rd", 4: "th", 11: "th", 12: "th", 13: "th", 21: "st", 22: "nd", 23: "rd", 31: "st"}
	for n, want := range cases {
		require.Equal(t, want, ordinal(n), n)
	}
}
