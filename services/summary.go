package services

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dzoniops/booking-service/models"
)

var amounts = message.NewPrinter(language.English)

// Summary formats a persisted booking for the operator's chat handoff.
func (s *BookingService) Summary(b *models.Booking, itemName string) string {
	var sb strings.Builder
	sb.WriteString("New Booking Request!\n\n")
	fmt.Fprintf(&sb, "Customer: %s\n", b.GuestName)
	fmt.Fprintf(&sb, "Email: %s\n", b.GuestEmail)
	fmt.Fprintf(&sb, "Phone: %s\n", b.GuestPhone)
	fmt.Fprintf(&sb, "Country: %s\n", b.GuestCountry)
	fmt.Fprintf(&sb, "Guests: %d\n", b.NumberOfGuests)
	fmt.Fprintf(&sb, "Booking: %s (%s)\n", itemName, b.BookingType)
	fmt.Fprintf(&sb, "Dates: %s - %s\n", longDate(b.StartDate), longDate(b.EndDate))
	fmt.Fprintf(&sb, "Total Price: %s %s\n", s.cfg.CurrencySymbol, amounts.Sprintf("%d", b.TotalPrice))
	fmt.Fprintf(&sb, "Deposit Required: %s %s\n", s.cfg.CurrencySymbol, amounts.Sprintf("%d", b.DepositAmount))
	fmt.Fprintf(&sb, "M-Pesa Paybill: %s\n", s.cfg.Paybill)
	fmt.Fprintf(&sb, "Account Number: %s\n", s.cfg.AccountNumber)
	if b.SpecialRequests != "" {
		fmt.Fprintf(&sb, "Special Requests: %s\n", b.SpecialRequests)
	}
	sb.WriteString("\nPlease confirm this booking.")
	return sb.String()
}

// longDate renders "June 1st, 2025".
func longDate(t time.Time) string {
	return fmt.Sprintf("%s %d%s, %d", t.Month(), t.Day(), ordinal(t.Day()), t.Year())
}

func ordinal(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
