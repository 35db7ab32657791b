// Package mailtmpl renders the HTML bodies of outbound email.
package mailtmpl

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
)

//go:embed templates/*.html
var files embed.FS

var tmpl = template.Must(template.ParseFS(files, "templates/*.html"))

type VerificationCode struct {
	Code       string
	TTLMinutes int
}

type NewListing struct {
	Title       string
	Location    string
	Description string
	ImageURL    string
	SiteURL     string
}

type DigestItem struct {
	Title       string
	Location    string
	Price       string
	Description string
	ImageURL    string
}

type Digest struct {
	Listings []DigestItem
	SiteURL  string
}

// ListingLifecycle feeds both the expiry warning and the removal notice.
type ListingLifecycle struct {
	Address    string
	Price      string
	PropertyID string
	Listed     string
	Expires    string
	Today      string
	Days       int
	DaysLeft   int
	FormURL    string
}

func RenderVerificationCode(d VerificationCode) (string, error) {
	return render("verification_code.html", d)
}

func RenderNewListing(d NewListing) (string, error) { return render("new_listing.html", d) }

func RenderDigest(d Digest) (string, error) { return render("daily_digest.html", d) }

func RenderListingExpired(d ListingLifecycle) (string, error) {
	return render("listing_expired.html", d)
}

func RenderListingExpiring(d ListingLifecycle) (string, error) {
	return render("listing_expiring.html", d)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// FormatPrice renders a numeric field with thousands separators. Non-numeric
// values are returned as text; nil becomes "".
func FormatPrice(v any) string {
	var f float64
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return x
		}
		f = p
	default:
		return fmt.Sprint(x)
	}
	whole := strconv.FormatInt(int64(f), 10)
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	return out
}
