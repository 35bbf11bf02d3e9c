package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// DateLayout is the calendar-date wire format. Bookings carry no time of day.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, Validationf("invalid date %q, expected yyyy-mm-dd", s)
	}
	return d, nil
}

func ParseDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	if e.Before(s) {
		return DateRange{}, Validationf("end date %s is before start date %s", end, start)
	}
	return DateRange{Start: s, End: e}, nil
}

// Truncate reduces t to its calendar date in UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const secondsPerDay = 24 * 60 * 60

// Days is the inclusive day count: 2024-01-01..2024-01-05 is 5 days.
func (r DateRange) Days() int32 {
	return int32((r.End.Unix()-r.Start.Unix())/secondsPerDay) + 1
}

func (r DateRange) Overlaps(o DateRange) bool {
	return !r.Start.After(o.End) && !o.Start.After(r.End)
}

func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}{
		StartDate: r.Start.Format(DateLayout),
		EndDate:   r.End.Format(DateLayout),
	})
}

// Overlaps reports whether r intersects any of existing.
func Overlaps(r DateRange, existing []DateRange) bool {
	for _, e := range existing {
		if r.Overlaps(e) {
			return true
		}
	}
	return false
}

type ledgerEntry struct {
	bookingID int32
	dates     DateRange
}

// Ledger is the availability view of one item. It is derived from the active bookings each
// time it is needed and never stored.
type Ledger struct {
	entries []ledgerEntry
}

// NewLedger keeps the active-set bookings and orders them by start date.
func NewLedger(bookings []Booking) (*Ledger, error) {
	l := &Ledger{}
	for i := range bookings {
		if !bookings[i].Status.IsActive() {
			continue
		}
		r, err := bookings[i].Range()
		if err != nil {
			return nil, err
		}
		l.entries = append(l.entries, ledgerEntry{bookingID: bookings[i].ID, dates: r})
	}
	sort.Slice(l.entries, func(a, b int) bool {
		return l.entries[a].dates.Start.Before(l.entries[b].dates.Start)
	})
	return l, nil
}

// Conflicts returns ids of active bookings overlapping r, ignoring excludeID.
func (l *Ledger) Conflicts(r DateRange, excludeID int32) []int32 {
	var ids []int32
	for _, e := range l.entries {
		if e.dates.Start.After(r.End) {
			break
		}
		if e.bookingID != excludeID && e.dates.Overlaps(r) {
			ids = append(ids, e.bookingID)
		}
	}
	return ids
}

func (l *Ledger) Blocks(r DateRange, excludeID int32) bool {
	return len(l.Conflicts(r, excludeID)) > 0
}

func (l *Ledger) Ranges() []DateRange {
	out := make([]DateRange, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.dates)
	}
	return out
}
