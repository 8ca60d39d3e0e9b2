// Package dates normalizes the date expressions accepted in order and
// report messages into canonical ISO dates.
package dates

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const ISO = "2006-01-02"

var ErrUnparseable = errors.New("unparseable date")

// Ordered: a raw string is tried against each format in turn and the first
// hit wins. The year-less form assumes the current year.
var deliveryFormats = []string{"02/01/2006", "02/01/06", "02/01"}

// ParseDate resolves a raw delivery-date string to YYYY-MM-DD. The literal
// "hoy" (any case, surrounding whitespace) is the current date.
func ParseDate(raw string, now time.Time) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "hoy" {
		return now.Format(ISO), nil
	}

	for _, layout := range deliveryFormats {
		parsed, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if layout == "02/01" {
			parsed = time.Date(now.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		}
		return parsed.Format(ISO), nil
	}

	return "", ErrUnparseable
}

// ParseRange resolves a report range expression to an inclusive [start, end]
// pair of ISO dates. Accepted forms: "hoy", "<fecha> a hoy", and a bare
// integer N meaning the last N days.
func ParseRange(raw string, now time.Time) (string, string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	today := now.Format(ISO)

	if s == "hoy" {
		return today, today, nil
	}

	if strings.Contains(s, "a hoy") {
		startRaw := strings.TrimSpace(strings.SplitN(s, "a hoy", 2)[0])
		start, err := ParseDate(startRaw, now)
		if err != nil {
			return "", "", err
		}
		return start, today, nil
	}

	if days, err := strconv.Atoi(s); err == nil && days >= 0 {
		start := now.AddDate(0, 0, -days).Format(ISO)
		return start, today, nil
	}

	return "", "", ErrUnparseable
}
