package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Profile describes the locale conventions of a bank CSV export: field
// delimiter, date layout and numeric separators.
type Profile struct {
	Name         string
	Delimiter    rune
	DateLayout   string
	DecimalSep   rune
	ThousandsSep rune
}

// KBCProfile matches the Dutch KBC export: semicolon-delimited,
// day/month/year dates, comma decimals.
func KBCProfile() Profile {
	return Profile{
		Name:         "kbc",
		Delimiter:    ';',
		DateLayout:   "02/01/2006",
		DecimalSep:   ',',
		ThousandsSep: '.',
	}
}

// GenericProfile matches comma-delimited exports with dot decimals and
// day/month/year dates.
func GenericProfile() Profile {
	return Profile{
		Name:         "generic",
		Delimiter:    ',',
		DateLayout:   "02/01/2006",
		DecimalSep:   '.',
		ThousandsSep: ',',
	}
}

// ProfileByName returns the named profile, defaulting to KBC.
func ProfileByName(name string) Profile {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "generic":
		return GenericProfile()
	default:
		return KBCProfile()
	}
}

// ParseDate parses a date strictly against the profile's layout.
func (p Profile) ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	t, err := time.ParseInLocation(p.DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// ParseAmount parses an amount into an exact decimal. Currency markers are
// stripped and separators normalized per the profile; the sign is preserved
// as given by the source.
func (p Profile) ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	for _, marker := range []string{"€", "EUR", "$", "USD"} {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}

	s = strings.ReplaceAll(s, string(p.ThousandsSep), "")
	if p.DecimalSep != '.' {
		s = strings.ReplaceAll(s, string(p.DecimalSep), ".")
	}
	s = strings.ReplaceAll(s, " ", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}
