package series

import (
	"testing"
	"time"
)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuildRejectsEmptyInput(t *testing.T) {
	b := NewBuilder(0)
	if _, err := b.Build(nil); err != ErrEmptyInput {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestBuildGapFillsSlots(t *testing.T) {
	b := NewBuilder(5 * time.Minute)
	calls := []HallCall{
		{Time: ts("2025-03-03 08:01:30"), Floor: 1, Direction: DirUp},
		{Time: ts("2025-03-03 08:03:00"), Floor: 5, Direction: DirDown},
		// 08:05 and 08:10 slots have no calls
		{Time: ts("2025-03-03 08:17:10"), Floor: 3, Direction: DirUp},
	}
	slots, err := b.Build(calls)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got, want := len(slots), 4; got != want {
		t.Fatalf("slot count: got %d want %d", got, want)
	}
	for i := 1; i < len(slots); i++ {
		if gap := slots[i].Start.Sub(slots[i-1].Start); gap != 5*time.Minute {
			t.Fatalf("slot %d not contiguous: gap %v", i, gap)
		}
	}
	if slots[0].Count != 2 || slots[0].UpCount != 1 || slots[0].DownCount != 1 {
		t.Fatalf("first slot counts wrong: %+v", slots[0])
	}
	if slots[1].Count != 0 || slots[2].Count != 0 {
		t.Fatalf("gap slots should be zero-count: %+v %+v", slots[1], slots[2])
	}
	if slots[3].Count != 1 || slots[3].Floors[0] != 3 {
		t.Fatalf("last slot wrong: %+v", slots[3])
	}
}

func TestBuildContiguousAcrossDays(t *testing.T) {
	b := NewBuilder(5 * time.Minute)
	calls := []HallCall{
		{Time: ts("2025-03-07 23:58:00"), Floor: 2}, // Friday
		{Time: ts("2025-03-08 00:07:00"), Floor: 9}, // Saturday
	}
	slots, err := b.Build(calls)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got, want := len(slots), 3; got != want {
		t.Fatalf("slot count: got %d want %d", got, want)
	}
	if slots[0].Regime != Weekday {
		t.Fatalf("friday slot should be weekday regime")
	}
	if slots[2].Regime != Weekend {
		t.Fatalf("saturday slot should be weekend regime")
	}
	if slots[0].TODIndex != 287 || slots[1].TODIndex != 0 {
		t.Fatalf("tod indices wrong: %d %d", slots[0].TODIndex, slots[1].TODIndex)
	}
}

func TestBuildUnsortedInput(t *testing.T) {
	b := NewBuilder(5 * time.Minute)
	calls := []HallCall{
		{Time: ts("2025-03-03 08:12:00"), Floor: 7},
		{Time: ts("2025-03-03 08:02:00"), Floor: 1},
	}
	slots, err := b.Build(calls)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if slots[0].Start != ts("2025-03-03 08:00:00") {
		t.Fatalf("series should start at earliest slot, got %v", slots[0].Start)
	}
	if got, want := len(slots), 3; got != want {
		t.Fatalf("slot count: got %d want %d", got, want)
	}
}

func TestFloorsInWindow(t *testing.T) {
	b := NewBuilder(5 * time.Minute)
	calls := []HallCall{
		{Time: ts("2025-03-03 08:01:00"), Floor: 1},
		{Time: ts("2025-03-03 08:06:00"), Floor: 4},
		{Time: ts("2025-03-03 08:11:00"), Floor: 9},
	}
	slots, err := b.Build(calls)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got := FloorsInWindow(slots, ts("2025-03-03 08:00:00"), ts("2025-03-03 08:10:00"))
	if len(got) != 2 || got[0] != 1 || got[1] != 4 {
		t.Fatalf("window floors: got %v want [1 4]", got)
	}
}
