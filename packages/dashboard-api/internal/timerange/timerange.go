package timerange

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRange = errors.New("invalid time range")

type Selector string

const (
	LastMinute Selector = "1m"
	LastHour   Selector = "1h"
	LastDay    Selector = "1d"
	AllTime    Selector = "all"
	Custom     Selector = "custom"

	Default = LastHour
)

var windows = map[Selector]time.Duration{
	LastMinute: time.Minute,
	LastHour:   time.Hour,
	LastDay:    24 * time.Hour,
}

// Range is a resolved query window. Nil bounds are open.
type Range struct {
	Selector Selector
	Start    *time.Time
	End      *time.Time
	Step     time.Duration
}

type bucket struct {
	upTo time.Duration
	step time.Duration
}

// Buckets are checked in order, the first one whose upper bound covers the span wins.
var buckets = []bucket{
	{upTo: time.Minute, step: time.Second},
	{upTo: time.Hour, step: 5 * time.Second},
	{upTo: 24 * time.Hour, step: time.Minute},
	{upTo: 7 * 24 * time.Hour, step: 10 * time.Minute},
}

const longStep = time.Hour

// StepFor returns the bucket width used for a window of the given length.
func StepFor(span time.Duration) time.Duration {
	for _, b := range buckets {
		if span <= b.upTo {
			return b.step
		}
	}

	return longStep
}

// Resolve turns a selector into concrete bounds and a bucket width. An empty
// selector means the default one. Custom ranges need both bounds.
func Resolve(selector Selector, start, end *time.Time, now time.Time) (Range, error) {
	if selector == "" {
		selector = Default
	}

	switch selector {
	case AllTime:
		return Range{Selector: selector, Step: longStep}, nil
	case Custom:
		if start == nil || end == nil {
			return Range{}, fmt.Errorf("%w: custom range needs both start and end", ErrInvalidRange)
		}

		if end.Before(*start) {
			return Range{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidRange, end.Format(time.RFC3339), start.Format(time.RFC3339))
		}

		s, e := start.UTC(), end.UTC()

		return Range{Selector: selector, Start: &s, End: &e, Step: StepFor(e.Sub(s))}, nil
	}

	window, ok := windows[selector]
	if !ok {
		return Range{}, fmt.Errorf("%w: unknown selector %q", ErrInvalidRange, selector)
	}

	s := now.Add(-window).UTC()

	return Range{Selector: selector, Start: &s, Step: StepFor(window)}, nil
}

// boundLayouts are tried in order. The zoneless layouts are what a datetime-local
// input submits and are read as UTC.
var boundLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Parse resolves the raw query parameters of a request. Bounds are RFC 3339
// timestamps or zoneless datetime-local values.
func Parse(selector, start, end string, now time.Time) (Range, error) {
	startTime, err := parseBound("start", start)
	if err != nil {
		return Range{}, err
	}

	endTime, err := parseBound("end", end)
	if err != nil {
		return Range{}, err
	}

	return Resolve(Selector(selector), startTime, endTime, now)
}

func parseBound(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	var firstErr error
	for _, layout := range boundLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return &t, nil
		}

		if firstErr == nil {
			firstErr = err
		}
	}

	return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRange, name, firstErr)
}
