package models

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Cadence is how often a round comes due.
type Cadence string

const (
	CadenceDaily   Cadence = "DAILY"
	CadenceWeekly  Cadence = "WEEKLY"
	CadenceMonthly Cadence = "MONTHLY"
)

var cadenceSpecs = map[Cadence]struct {
	spec   string
	period time.Duration
}{
	CadenceDaily:   {"@daily", 24 * time.Hour},
	CadenceWeekly:  {"@weekly", 7 * 24 * time.Hour},
	CadenceMonthly: {"@monthly", 28 * 24 * time.Hour},
}

// Valid reports whether c is a known cadence.
func (c Cadence) Valid() bool {
	_, ok := cadenceSpecs[c]
	return ok
}

// NextDue returns the deadline of a round opened at openedAt: the first
// cadence boundary (UTC midnight, Sunday midnight, first of month) at least
// one full period after openedAt.
func (c Cadence) NextDue(openedAt time.Time) (time.Time, error) {
	s, ok := cadenceSpecs[c]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown cadence %q", c)
	}
	schedule, err := cron.ParseStandard(s.spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cadence schedule: %w", err)
	}
	return schedule.Next(openedAt.UTC().Add(s.period - time.Second)), nil
}
