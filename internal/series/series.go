// Package series turns raw hall-call events into a regular, gap-free
// time-slot series that the forecaster, classifier and parking engine
// all consume.
package series

import (
	"errors"
	"sort"
	"time"
)

// DefaultSlotWidth is the aggregation and decision cadence.
const DefaultSlotWidth = 5 * time.Minute

// ErrEmptyInput is returned when no hall calls are supplied.
var ErrEmptyInput = errors.New("series: no hall calls supplied")

// Direction of a hall call, when the source recorded one.
type Direction string

const (
	DirUp      Direction = "Up"
	DirDown    Direction = "Down"
	DirUnknown Direction = "Unknown"
)

// HallCall is a single immutable demand event. Duplicates are permitted;
// they are independent events.
type HallCall struct {
	Time      time.Time `json:"time"`
	Floor     int       `json:"floor"`
	Direction Direction `json:"direction,omitempty"`
}

// Regime separates weekday and weekend demand patterns.
type Regime int

const (
	Weekend Regime = iota
	Weekday
)

func (r Regime) String() string {
	if r == Weekday {
		return "weekday"
	}
	return "weekend"
}

// RegimeOf returns the regime for a point in time. ISO weekdays 1..5 are
// the weekday regime.
func RegimeOf(t time.Time) Regime {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return Weekend
	default:
		return Weekday
	}
}

// TimeSlot is one fixed-width bucket of aggregated demand. The slot series
// is always contiguous: slots with no calls are present with Count 0.
type TimeSlot struct {
	Start     time.Time
	Count     int
	UpCount   int
	DownCount int
	Floors    []int // origin floors of the calls in this slot, in arrival order
	Regime    Regime
	TODIndex  int // position within the day, 0..SlotsPerDay-1
}

// Builder aggregates hall calls into TimeSlots.
type Builder struct {
	Width time.Duration
}

// NewBuilder returns a Builder with the given slot width, defaulting to
// five minutes when width is zero.
func NewBuilder(width time.Duration) *Builder {
	if width <= 0 {
		width = DefaultSlotWidth
	}
	return &Builder{Width: width}
}

// SlotsPerDay returns how many slots one day holds at this width.
func (b *Builder) SlotsPerDay() int {
	return int(24 * time.Hour / b.Width)
}

// SlotStart floors t to its slot boundary.
func (b *Builder) SlotStart(t time.Time) time.Time {
	return t.Truncate(b.Width)
}

// TODIndex returns the time-of-day index of t at this builder's width.
func (b *Builder) TODIndex(t time.Time) int {
	minutes := t.Hour()*60 + t.Minute()
	return minutes / int(b.Width.Minutes())
}

// Build aggregates calls into a gap-filled slot series covering the closed
// range [min slot, max slot]. Calls need not be pre-sorted.
func (b *Builder) Build(calls []HallCall) ([]TimeSlot, error) {
	if len(calls) == 0 {
		return nil, ErrEmptyInput
	}

	ordered := make([]HallCall, len(calls))
	copy(ordered, calls)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Time.Before(ordered[j].Time) })

	byStart := make(map[time.Time]*TimeSlot)
	first := b.SlotStart(ordered[0].Time)
	last := first
	for _, c := range ordered {
		start := b.SlotStart(c.Time)
		if start.After(last) {
			last = start
		}
		slot, ok := byStart[start]
		if !ok {
			slot = &TimeSlot{Start: start}
			byStart[start] = slot
		}
		slot.Count++
		slot.Floors = append(slot.Floors, c.Floor)
		switch c.Direction {
		case DirUp:
			slot.UpCount++
		case DirDown:
			slot.DownCount++
		}
	}

	n := int(last.Sub(first)/b.Width) + 1
	out := make([]TimeSlot, 0, n)
	for start := first; !start.After(last); start = start.Add(b.Width) {
		slot := TimeSlot{Start: start}
		if s, ok := byStart[start]; ok {
			slot = *s
		}
		slot.Regime = RegimeOf(start)
		slot.TODIndex = b.TODIndex(start)
		out = append(out, slot)
	}
	return out, nil
}

// FloorsInWindow collects the origin floors of the slots whose start lies in
// [from, to). Used as the recent-demand history for parking decisions.
func FloorsInWindow(slots []TimeSlot, from, to time.Time) []int {
	var floors []int
	for _, s := range slots {
		if s.Start.Before(from) || !s.Start.Before(to) {
			continue
		}
		floors = append(floors, s.Floors...)
	}
	return floors
}

// FloorRange returns the minimum and maximum floor observed across calls.
func FloorRange(calls []HallCall) (min, max int) {
	if len(calls) == 0 {
		return 0, 0
	}
	min, max = calls[0].Floor, calls[0].Floor
	for _, c := range calls[1:] {
		if c.Floor < min {
			min = c.Floor
		}
		if c.Floor > max {
			max = c.Floor
		}
	}
	return min, max
}
