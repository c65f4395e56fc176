package availability

import (
	"testing"
	"time"
)

// 2024-01-15 is a Monday.
func day(d, h, m int) time.Time {
	return time.Date(2024, 1, d, h, m, 0, 0, time.UTC)
}

func TestParseWindow(t *testing.T) {
	w := ParseWindow(" Monday 08:00-12:30 ")
	if !w.Valid() {
		t.Fatal("expected window to be valid")
	}
	if w.Weekday != time.Monday || w.StartHour != 8 || w.StartMinute != 0 || w.EndHour != 12 || w.EndMinute != 30 {
		t.Errorf("unexpected window %+v", w)
	}
	if w.String() != "Monday 08:00-12:30" {
		t.Errorf("unexpected String() %q", w.String())
	}
}

func TestParseWindow_Malformed(t *testing.T) {
	for _, tok := range []string{
		"",
		"Monday",
		"Monday 8-12",
		"Funday 08:00-12:00",
		"Monday 25:00-26:00",
		"Monday 08:60-09:00",
		"08:00-12:00 Monday",
	} {
		t.Run(tok, func(t *testing.T) {
			w := ParseWindow(tok)
			if w.Valid() {
				t.Errorf("expected %q to be malformed", tok)
			}
			f := Parse([]string{tok})
			for d := 14; d <= 20; d++ {
				if f.IsDateSelectable(day(d, 9, 0)) {
					t.Errorf("malformed token %q matched %v", tok, day(d, 9, 0).Weekday())
				}
			}
		})
	}
}

func TestParseWindow_CaseAndAbbreviations(t *testing.T) {
	for _, tok := range []string{"monday 08:00-09:00", "MON 08:00-09:00", "Mon 8:00 - 9:00"} {
		if w := ParseWindow(tok); !w.Valid() || w.Weekday != time.Monday {
			t.Errorf("expected %q to parse as Monday, got %+v", tok, w)
		}
	}
}

func TestFilter_IsDateSelectable_Scenario(t *testing.T) {
	f := ParseList("Monday 08:00-12:00, Wednesday 13:00-17:00")

	if !f.IsDateSelectable(day(15, 0, 0)) {
		t.Error("expected Monday to be selectable")
	}
	if f.IsDateSelectable(day(16, 0, 0)) {
		t.Error("expected Tuesday to be rejected")
	}
	if !f.IsDateSelectable(day(17, 0, 0)) {
		t.Error("expected Wednesday to be selectable")
	}
}

func TestFilter_IsDateSelectable_EveryWeekday(t *testing.T) {
	names := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	for i, name := range names {
		f := Parse([]string{name + " 09:00-10:00"})
		for d := 14; d <= 20; d++ {
			date := day(d, 12, 0)
			want := int(date.Weekday()) == i
			if got := f.IsDateSelectable(date); got != want {
				t.Errorf("%s window on %v: got %v, want %v", name, date.Weekday(), got, want)
			}
		}
	}
}

func TestFilter_IsTimeSelectable_InclusiveBounds(t *testing.T) {
	f := ParseList("Monday 08:00-12:00")
	ref := day(15, 0, 0)

	tests := []struct {
		h, m int
		want bool
	}{
		{7, 59, false},
		{8, 0, true},
		{10, 30, true},
		{12, 0, true},
		{12, 1, false},
	}
	for _, tt := range tests {
		got := f.IsTimeSelectable(day(15, tt.h, tt.m), ref)
		if got != tt.want {
			t.Errorf("%02d:%02d: got %v, want %v", tt.h, tt.m, got, tt.want)
		}
	}
}

func TestFilter_IsTimeSelectable_UsesReferenceWeekday(t *testing.T) {
	f := ParseList("Monday 08:00-12:00, Wednesday 13:00-17:00")

	// A 14:00 candidate is only valid against the Wednesday reference.
	candidate := day(15, 14, 0)
	if f.IsTimeSelectable(candidate, day(15, 0, 0)) {
		t.Error("expected 14:00 to be rejected for Monday")
	}
	if !f.IsTimeSelectable(candidate, day(17, 0, 0)) {
		t.Error("expected 14:00 to be accepted for Wednesday")
	}
	if f.IsTimeSelectable(candidate, day(16, 0, 0)) {
		t.Error("expected nothing to be accepted for Tuesday")
	}
}

func TestFilter_OverlappingWindowsUnion(t *testing.T) {
	f := ParseList("Friday 08:00-10:00, Friday 09:30-11:00, Friday 08:00-10:00")
	ref := day(19, 0, 0)
	for _, hm := range [][2]int{{8, 0}, {10, 0}, {10, 45}, {11, 0}} {
		if !f.IsTimeSelectable(day(19, hm[0], hm[1]), ref) {
			t.Errorf("expected %02d:%02d to be selectable", hm[0], hm[1])
		}
	}
	if f.IsTimeSelectable(day(19, 11, 1), ref) {
		t.Error("expected 11:01 to be rejected")
	}
}

func TestFilter_MalformedAlongsideValid(t *testing.T) {
	f := ParseList("Monday 08:00-12:00, garbage, Someday 01:00-02:00")
	if !f.IsDateSelectable(day(15, 9, 0)) {
		t.Error("expected valid window to survive malformed neighbours")
	}
	bad := f.Malformed()
	if len(bad) != 2 || bad[0] != "garbage" || bad[1] != "Someday 01:00-02:00" {
		t.Errorf("unexpected malformed list %v", bad)
	}
}

func TestFilter_Allows(t *testing.T) {
	f := ParseList("Monday 08:00-12:00")
	if !f.Allows(day(15, 9, 0)) {
		t.Error("expected Monday 09:00 to be allowed")
	}
	if f.Allows(day(15, 13, 0)) {
		t.Error("expected Monday 13:00 to be rejected")
	}
	if f.Allows(day(16, 9, 0)) {
		t.Error("expected Tuesday 09:00 to be rejected")
	}
}

func TestFilter_SelectableTimes(t *testing.T) {
	f := ParseList("Monday 08:00-09:00")
	got := f.SelectableTimes(day(15, 0, 0), 30*time.Minute)
	if len(got) != 3 {
		t.Fatalf("expected 3 slots, got %d: %v", len(got), got)
	}
	if got[0].Hour() != 8 || got[2].Hour() != 9 || got[2].Minute() != 0 {
		t.Errorf("unexpected slots %v", got)
	}
	if len(f.SelectableTimes(day(16, 0, 0), 30*time.Minute)) != 0 {
		t.Error("expected no slots on Tuesday")
	}
}

func TestFormat(t *testing.T) {
	f := ParseList("monday 8:00-12:00,Wed 13:00-17:00")
	if got := Format(f.Windows()); got != "Monday 08:00-12:00, Wednesday 13:00-17:00" {
		t.Errorf("unexpected format %q", got)
	}
}

func TestParseList_Empty(t *testing.T) {
	f := ParseList("   ")
	if len(f.Windows()) != 0 {
		t.Errorf("expected no windows, got %d", len(f.Windows()))
	}
	if f.IsDateSelectable(day(15, 9, 0)) {
		t.Error("expected nothing to be selectable")
	}
}
