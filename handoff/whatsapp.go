// Package handoff builds the deep link that hands a booking summary over to
// the operator's messaging app. Sending the message is left to the caller.
package handoff

import (
	"net/url"
	"strings"
)

const whatsAppBase = "https://wa.me/"

// WhatsAppLink returns a click-to-chat link prefilled with text. wa.me only
// accepts the digits of an international number.
func WhatsAppLink(number, text string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)

	// QueryEscape encodes spaces as '+', which chat clients show literally.
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return whatsAppBase + digits + "?text=" + escaped
}
