package atom

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Entity descriptions carry durations in the ISO 8601 form PnDTnHnMnS
// (e.g. "PT1M", "P14D", "PT16.5S"). Year and month designators are not used
// by the management API and are rejected.

// FormatDuration renders d in ISO 8601 form. Negative durations are clamped
// to PT0S.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "PT0S"
	}

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d.Seconds()

	var b strings.Builder
	b.WriteByte('P')
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if hours > 0 || minutes > 0 || seconds > 0 {
		b.WriteByte('T')
		if hours > 0 {
			fmt.Fprintf(&b, "%dH", hours)
		}
		if minutes > 0 {
			fmt.Fprintf(&b, "%dM", minutes)
		}
		if seconds > 0 {
			b.WriteString(strconv.FormatFloat(seconds, 'f', -1, 64))
			b.WriteByte('S')
		}
	}
	if b.Len() == 1 {
		return "PT0S"
	}
	return b.String()
}

// ParseDuration decodes an ISO 8601 duration of the PnDTnHnMnS form.
func ParseDuration(s string) (time.Duration, error) {
	orig := s
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", orig)
	}
	s = s[1:]

	datePart := s
	timePart := ""
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		datePart, timePart = s[:i], s[i+1:]
	}
	if datePart == "" && timePart == "" {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", orig)
	}

	var total time.Duration

	rest, err := consume(datePart, map[byte]time.Duration{'D': 24 * time.Hour}, &total)
	if err != nil || rest != "" {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", orig)
	}

	rest, err = consume(timePart, map[byte]time.Duration{
		'H': time.Hour,
		'M': time.Minute,
		'S': time.Second,
	}, &total)
	if err != nil || rest != "" {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", orig)
	}

	return total, nil
}

// consume reads number+designator pairs off s, adding each to total. It
// returns the unconsumed tail, which must be empty for a valid duration.
func consume(s string, units map[byte]time.Duration, total *time.Duration) (string, error) {
	for s != "" {
		i := 0
		for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
			i++
		}
		if i == 0 || i == len(s) {
			return s, fmt.Errorf("missing value or designator")
		}
		unit, ok := units[s[i]]
		if !ok {
			return s, fmt.Errorf("unknown designator %q", s[i])
		}
		value, err := strconv.ParseFloat(s[:i], 64)
		if err != nil {
			return s, err
		}
		*total += time.Duration(value * float64(unit))
		s = s[i+1:]
	}
	return "", nil
}
