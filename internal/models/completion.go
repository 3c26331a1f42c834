package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Mood string

const (
	MoodGreat    Mood = "great"
	MoodGood     Mood = "good"
	MoodOkay     Mood = "okay"
	MoodBad      Mood = "bad"
	MoodTerrible Mood = "terrible"
)

// Valid reports whether m is one of the known moods
func (m Mood) Valid() bool {
	switch m {
	case MoodGreat, MoodGood, MoodOkay, MoodBad, MoodTerrible:
		return true
	}
	return false
}

type Energy string

const (
	EnergyHigh   Energy = "high"
	EnergyMedium Energy = "medium"
	EnergyLow    Energy = "low"
)

func (e Energy) Valid() bool {
	switch e {
	case EnergyHigh, EnergyMedium, EnergyLow:
		return true
	}
	return false
}

// CompletionDetail is the structured form of a ledger entry
type CompletionDetail struct {
	Completed bool   `json:"completed"`
	Note      string `json:"note,omitempty"`
	Mood      Mood   `json:"mood,omitempty"`
	Energy    Energy `json:"energy,omitempty"`
}

// CompletionEntry is a single day in a Ledger. It is either a simple
// boolean entry or a detailed entry carrying a CompletionDetail.
// A day with no entry is represented by the key being absent.
type CompletionEntry struct {
	// Done holds the value of a simple boolean entry. Ignored when Detail is set.
	Done   bool
	Detail *CompletionDetail
}

// SimpleEntry returns the boolean `true` form of a completion
func SimpleEntry() CompletionEntry {
	return CompletionEntry{Done: true}
}

// DetailedEntry returns a structured completion entry
func DetailedEntry(d CompletionDetail) CompletionEntry {
	return CompletionEntry{Detail: &d}
}

// IsDetailed reports whether the entry uses the structured form
func (e CompletionEntry) IsDetailed() bool {
	return e.Detail != nil
}

// IsCounted reports whether the entry counts as a completed day: a simple
// entry that is true, or a detailed entry whose Completed field is true.
// A detailed entry with Completed=false is logged but not completed.
func (e CompletionEntry) IsCounted() bool {
	if e.Detail != nil {
		return e.Detail.Completed
	}
	return e.Done
}

// Clone returns a deep copy of the entry
func (e CompletionEntry) Clone() CompletionEntry {
	if e.Detail == nil {
		return e
	}
	d := *e.Detail
	return CompletionEntry{Done: e.Done, Detail: &d}
}

func (e CompletionEntry) MarshalJSON() ([]byte, error) {
	if e.Detail != nil {
		return json.Marshal(e.Detail)
	}
	return json.Marshal(e.Done)
}

func (e *CompletionEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty completion entry")
	}
	switch data[0] {
	case '{':
		var d CompletionDetail
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("invalid completion entry: %w", err)
		}
		*e = CompletionEntry{Detail: &d}
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("invalid completion entry: %w", err)
		}
		*e = CompletionEntry{Done: b}
		return nil
	default:
		return fmt.Errorf("completion entry must be a boolean or an object, got %s", data)
	}
}

// Ledger maps local calendar dates (YYYY-MM-DD) to completion entries
type Ledger map[string]CompletionEntry

// Counted reports whether the given day counts as completed
func (l Ledger) Counted(day string) bool {
	e, ok := l[day]
	return ok && e.IsCounted()
}

// CountedDays returns every day key that counts as completed, unsorted
func (l Ledger) CountedDays() []string {
	days := make([]string, 0, len(l))
	for day, e := range l {
		if e.IsCounted() {
			days = append(days, day)
		}
	}
	return days
}

// Clone returns a deep copy of the ledger. A nil ledger clones to an empty one.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for day, e := range l {
		out[day] = e.Clone()
	}
	return out
}

// Equal reports whether both ledgers hold the same days with the same entries
func (l Ledger) Equal(other Ledger) bool {
	if len(l) != len(other) {
		return false
	}
	for day, e := range l {
		o, ok := other[day]
		if !ok || e.IsDetailed() != o.IsDetailed() {
			return false
		}
		if e.IsDetailed() {
			if *e.Detail != *o.Detail {
				return false
			}
		} else if e.Done != o.Done {
			return false
		}
	}
	return true
}

// MarshalJSON always emits an object, never null
func (l Ledger) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]CompletionEntry(l))
}
