package scheduler

import (
	"fmt"
	"strings"

	"flat_bot/internal/model"
)

const notifyDateLayout = "02-01-2006"

// FormatOffer renders an offer as a multi-line notification. Each field
// is included only when present, in a fixed order, each on its own line:
// title, price, availability start, availability end, upload marker, link.
func FormatOffer(o model.Offer) string {
	var b strings.Builder
	if o.Title != "" {
		b.WriteString(o.Title)
		b.WriteString("\n")
	}
	if o.Price > 0 {
		fmt.Fprintf(&b, "Price: %d€\n", o.Price)
	}
	if o.Beginning != nil {
		fmt.Fprintf(&b, "Available from: %s\n", o.Beginning.Format(notifyDateLayout))
	}
	if o.Until != nil {
		fmt.Fprintf(&b, "Available until: %s\n", o.Until.Format(notifyDateLayout))
	}
	if o.UploadText != "" {
		fmt.Fprintf(&b, "Uploaded: %s\n", o.UploadText)
	}
	b.WriteString(o.Link)
	b.WriteString("\n")
	return b.String()
}
