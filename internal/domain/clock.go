package domain

import (
	"fmt"
	"time"
)

// NotificationHour is the local wall-clock time birthday notifications are
// due: 9:00 AM in the user's timezone.
const (
	NotificationHour   = 9
	NotificationMinute = 0
)

// LocalNow converts now to the wall clock of an IANA location.
func LocalNow(location string, now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(location)
	if err != nil {
		return time.Time{}, fmt.Errorf("load location %q: %w", location, err)
	}
	return now.In(loc), nil
}

// OccurrenceAt returns the instant at which the location's wall clock reads
// hour:min on the current local day, whether or not it has already passed.
// The construction goes through the zone database, so DST transitions in the
// location are accounted for.
func OccurrenceAt(location string, now time.Time, hour, min int) (time.Time, error) {
	localNow, err := LocalNow(location, now)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(localNow.Year(), localNow.Month(), localNow.Day(), hour, min, 0, 0, localNow.Location()), nil
}

// OccurrenceYear returns the calendar year the instant falls on in the
// location's wall clock. Year-scoped flags must use this, not the server's
// zone: around New Year the two can disagree by one.
func OccurrenceYear(location string, t time.Time) (int, error) {
	local, err := LocalNow(location, t)
	if err != nil {
		return 0, err
	}
	return local.Year(), nil
}

// NextOccurrence returns today's hour:min instant in the location if it is
// still in the future. ok is false when the local wall clock has already
// passed that moment; the occurrence is then skipped rather than rolled to
// the next day, since eligibility is re-evaluated per calendar day.
func NextOccurrence(location string, now time.Time, hour, min int) (occurrence time.Time, ok bool, err error) {
	occ, err := OccurrenceAt(location, now, hour, min)
	if err != nil {
		return time.Time{}, false, err
	}
	if occ.Before(now) {
		return occ, false, nil
	}
	return occ, true, nil
}
