package timeutil

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ringsaturn/tzf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LoadLocation resolves an IANA zone name. Exact names are tried first, then
// a case-normalized spelling, so "europe/berlin" resolves to Europe/Berlin.
// Misspellings are not corrected: "Europe-berlin" fails.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	// time.LoadLocation maps "" to UTC and "Local" to the host zone; neither
	// is an IANA name.
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}

	for _, candidate := range zoneCandidates(name) {
		if loc, err := time.LoadLocation(candidate); err == nil {
			return loc, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
}

// CanonicalZone returns the IANA spelling of name as accepted by
// LoadLocation.
func CanonicalZone(name string) (string, error) {
	loc, err := LoadLocation(name)
	if err != nil {
		return "", err
	}
	return loc.String(), nil
}

func zoneCandidates(name string) []string {
	return []string{name, titleZone(name), strings.ToUpper(name)}
}

// titleZone title-cases each word of a zone name while keeping the '/',
// '_' and '-' separators: "america/los_angeles" -> "America/Los_Angeles".
func titleZone(name string) string {
	caser := cases.Title(language.Und)

	var b strings.Builder
	word := make([]rune, 0, len(name))
	flush := func() {
		if len(word) > 0 {
			b.WriteString(caser.String(string(word)))
			word = word[:0]
		}
	}
	for _, r := range name {
		switch r {
		case '/', '_', '-':
			flush()
			b.WriteRune(r)
		default:
			word = append(word, r)
		}
	}
	flush()
	return b.String()
}

var (
	finderOnce sync.Once
	finder     tzf.F
	finderErr  error
)

// TimezoneAt returns the IANA zone containing the given coordinates. The
// polygon data set is loaded on first use and shared afterwards.
func TimezoneAt(lat, lon float64) (string, error) {
	finderOnce.Do(func() {
		finder, finderErr = tzf.NewDefaultFinder()
	})
	if finderErr != nil {
		return "", fmt.Errorf("timezone finder: %w", finderErr)
	}

	name := finder.GetTimezoneName(lon, lat)
	if name == "" {
		return "", fmt.Errorf("%w: no zone at latitude %g longitude %g", ErrInvalidTimezone, lat, lon)
	}
	return name, nil
}
