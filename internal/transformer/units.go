package transformer

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	displayDateLayout = "02-01-2006"
	displayTimeLayout = "03:04PM"
	sqlDateLayout     = "2006-01-02"
)

// ToStandardUnit converts a raw integer scaled amount into whole units.
func ToStandardUnit(raw string, decimals int32) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, err
	}
	return d.Shift(-decimals), nil
}

// ParseNanoTimestamp parses a nanosecond epoch string.
func ParseNanoTimestamp(nanos string) (time.Time, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(nanos), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(n/int64(time.Second), n%int64(time.Second)).UTC(), nil
}

// DisplayDateTime renders the DD-MM-YYYY date and lowercase hh:mmam clock in UTC.
func DisplayDateTime(t time.Time) (string, string) {
	t = t.UTC()
	return t.Format(displayDateLayout), strings.ToLower(t.Format(displayTimeLayout))
}

// FormatDateForSQL converts a DD-MM-YYYY display date into YYYY-MM-DD.
func FormatDateForSQL(display string) (string, error) {
	t, err := time.Parse(displayDateLayout, display)
	if err != nil {
		return "", err
	}
	return t.Format(sqlDateLayout), nil
}

// SanitizeString drops anything that is neither ASCII nor a letter or digit.
func SanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
