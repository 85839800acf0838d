// Package messaging formats quote text and WhatsApp share links. It never sends
// anything; opening the link is left to the client.
package messaging

import (
	"errors"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	whatsAppBaseURL = "https://wa.me/"
	minPhoneDigits  = 10
	maxPhoneDigits  = 15
)

// ErrInvalidPhone is returned when a phone number cannot be turned into a link.
var ErrInvalidPhone = errors.New("invalid phone number")

// QuoteMessage is the data rendered into a shareable quote text.
type QuoteMessage struct {
	StudioName    string
	ClientName    string
	Width         float64
	Height        float64
	Area          float64
	BodyPart      string
	Complexity    string
	TimeHours     float64
	OriginalPrice float64
	CouponCode    string
	Discount      float64
	FinalPrice    float64
	Currency      string
}

// FormatQuoteMessage renders m as plain text suitable for a chat message.
func FormatQuoteMessage(m QuoteMessage) string {
	var b strings.Builder

	if m.ClientName != "" {
		b.WriteString("Hi " + m.ClientName + "!\n")
	} else {
		b.WriteString("Hi!\n")
	}
	if m.StudioName != "" {
		b.WriteString("Here is your tattoo quote from " + m.StudioName + ":\n\n")
	} else {
		b.WriteString("Here is your tattoo quote:\n\n")
	}

	b.WriteString("Size: " + number(m.Width) + " x " + number(m.Height) + " cm (" + number(m.Area) + " cm²)\n")
	if m.BodyPart != "" {
		b.WriteString("Placement: " + m.BodyPart + "\n")
	}
	if m.Complexity != "" {
		b.WriteString("Style: " + m.Complexity + "\n")
	}
	b.WriteString("Estimated time: " + number(m.TimeHours) + " h\n")

	if m.CouponCode != "" && m.Discount > 0 {
		b.WriteString("Price: " + money(m.Currency, m.OriginalPrice) + "\n")
		b.WriteString("Coupon " + m.CouponCode + ": -" + money(m.Currency, m.Discount) + "\n")
	}
	b.WriteString("Total: " + money(m.Currency, m.FinalPrice))

	return b.String()
}

// WhatsAppLink builds a click-to-chat link for phone prefilled with text.
// Formatting characters in phone are ignored; 10 to 15 digits must remain.
func WhatsAppLink(phone, text string) (string, error) {
	digits, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}

	link := whatsAppBaseURL + digits
	if text != "" {
		link += "?text=" + url.QueryEscape(text)
	}
	return link, nil
}

// NormalizePhone strips everything but digits from phone and checks its length.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", ErrInvalidPhone
		}
	}

	digits := b.String()
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return "", ErrInvalidPhone
	}
	return digits, nil
}

func money(currency string, v float64) string {
	amount := decimal.NewFromFloat(v).StringFixed(2)
	if currency == "" {
		return amount
	}
	return currency + " " + amount
}

func number(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
