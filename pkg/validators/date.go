package validators

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/theflupke/formcheck/pkg/registry"
)

const defaultDateFormat = "y-m-d"

// validateDate checks a date against a token format such as "d/m/y". The
// format comes from the validator options, then the control's
// data-date-format attribute, then ISO order. Parsing is strict: 31/02/2020
// fails because February has no 31st.
func validateDate(_ context.Context, in registry.Input) (registry.Result, error) {
	raw := strings.TrimSpace(in.Value.String())
	if raw == "" {
		return registry.Result{Valid: true}, nil
	}

	format, _ := in.Options.String("format")
	if format == "" {
		format, _ = in.Field.Attr("data-date-format")
	}
	if format == "" {
		format = defaultDateFormat
	}

	date, ok := parseStrictDate(raw, format)
	if !ok {
		return registry.Result{Valid: false}, nil
	}
	return registry.Result{Valid: true, Data: date}, nil
}

// parseStrictDate splits value and format on their shared separator, maps the
// d/m/y tokens to components, and rejects dates that time.Date normalises
// away (Feb 31 rolling over to March).
func parseStrictDate(value, format string) (time.Time, bool) {
	separator := formatSeparator(format)
	if separator == 0 {
		return time.Time{}, false
	}

	tokens := strings.Split(format, string(separator))
	parts := strings.Split(value, string(separator))
	if len(tokens) != 3 || len(parts) != 3 {
		return time.Time{}, false
	}

	var day, month, year int
	seen := make(map[string]bool, 3)
	for i, token := range tokens {
		number, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return time.Time{}, false
		}
		key := strings.ToLower(strings.TrimSpace(token))
		if key == "" || seen[key[:1]] {
			return time.Time{}, false
		}
		seen[key[:1]] = true
		switch key[0] {
		case 'd':
			day = number
		case 'm':
			month = number
		case 'y':
			year = number
			if len(parts[i]) <= 2 {
				year += 2000
			}
		default:
			return time.Time{}, false
		}
	}
	if !seen["d"] || !seen["m"] || !seen["y"] {
		return time.Time{}, false
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

func formatSeparator(format string) byte {
	for i := 0; i < len(format); i++ {
		switch format[i] {
		case '/', '-', '.', ' ':
			return format[i]
		}
	}
	return 0
}
