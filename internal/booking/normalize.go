package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	clockTimeRE = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(a\.m\.|p\.m\.|am|pm)?\b`)
	noonRE      = regexp.MustCompile(`(?i)\b(noon|midday)\b`)
	midnightRE  = regexp.MustCompile(`(?i)\bmidnight\b`)
)

// dateLayouts are tried in order against the raw input.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// yearlessLayouts assume the current year.
var yearlessLayouts = []string{
	"Jan 2",
	"January 2",
	"2 Jan",
	"2 January",
	"01/02",
	"1/2",
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// NormalizeDate converts a user-supplied date phrase to the gateway's
// YYYY-MM-DD format. Relative phrases are resolved against now.
func NormalizeDate(raw string, now time.Time) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("booking: empty date")
	}
	lower := strings.ToLower(s)

	switch lower {
	case "today":
		return now.Format("2006-01-02"), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format("2006-01-02"), nil
	case "day after tomorrow":
		return now.AddDate(0, 0, 2).Format("2006-01-02"), nil
	}

	if wd, ok := weekdays[strings.TrimPrefix(lower, "next ")]; ok {
		days := int(wd-now.Weekday()+7) % 7
		if days == 0 {
			days = 7
		}
		return now.AddDate(0, 0, days).Format("2006-01-02"), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
			return t.Format("2006-01-02"), nil
		}
	}

	return "", fmt.Errorf("booking: unrecognized date %q", raw)
}

// NormalizeTime converts a user-supplied time phrase to the gateway's
// 24-hour HH:MM format.
func NormalizeTime(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("booking: empty time")
	}

	if noonRE.MatchString(s) {
		return "12:00", nil
	}
	if midnightRE.MatchString(s) {
		return "00:00", nil
	}

	m := clockTimeRE.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("booking: unrecognized time %q", raw)
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return "", fmt.Errorf("booking: unrecognized time %q", raw)
	}
	minute := 0
	if m[2] != "" {
		if minute, err = strconv.Atoi(m[2]); err != nil {
			return "", fmt.Errorf("booking: unrecognized time %q", raw)
		}
	}

	meridiem := strings.ToLower(strings.ReplaceAll(m[3], ".", ""))
	switch meridiem {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	if hour > 23 || minute > 59 {
		return "", fmt.Errorf("booking: time %q out of range", raw)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}
