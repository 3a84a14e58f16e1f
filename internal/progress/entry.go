package progress

import (
	"time"
)

type WeightReport struct {
	WeightKG   float64   `json:"weightKg"`
	BodyFatPct float64   `json:"bodyFatPct"`
	RecordedAt time.Time `json:"recordedAt"`
}

type Measurement struct {
	BodyFatPct float64   `json:"bodyFatPct"`
	Notes      string    `json:"notes"`
	RecordedAt time.Time `json:"recordedAt"`
}

type Note struct {
	Notes      string    `json:"notes"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Entry (DB level type) is a single progress record a user logs over time:
//   - weight report (weight in kilos, optionally with a body fat reading)
//   - measurement (body fat reading, optionally with a note)
//   - note (free text, e.g. an injury or a skipped session)
type Entry struct {
	ID         int       `json:"id"`
	UserID     string    `json:"userId"`
	Kind       EntryKind `json:"kind"`
	WeightKG   float64   `json:"weightKg"`
	BodyFatPct float64   `json:"bodyFatPct"`
	Notes      string    `json:"notes"`
	RecordedAt time.Time `json:"recordedAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewWeightEntry(userID string, wr WeightReport) Entry {
	return Entry{
		UserID:     userID,
		Kind:       EntryKindWeight,
		WeightKG:   wr.WeightKG,
		BodyFatPct: wr.BodyFatPct,
		RecordedAt: wr.RecordedAt,
	}
}

func NewMeasurementEntry(userID string, m Measurement) Entry {
	return Entry{
		UserID:     userID,
		Kind:       EntryKindMeasurement,
		BodyFatPct: m.BodyFatPct,
		Notes:      m.Notes,
		RecordedAt: m.RecordedAt,
	}
}

func NewNoteEntry(userID string, n Note) Entry {
	return Entry{
		UserID:     userID,
		Kind:       EntryKindNote,
		Notes:      n.Notes,
		RecordedAt: n.RecordedAt,
	}
}

// WeightPoint is a single weight reading in a user's history.
type WeightPoint struct {
	WeightKG   float64   `json:"weightKg"`
	RecordedAt time.Time `json:"recordedAt"`
}

// EntryKind can be one of:
//   - weight
//   - measurement
//   - note
type EntryKind string

const (
	EntryKindWeight      EntryKind = "weight"
	EntryKindMeasurement EntryKind = "measurement"
	EntryKindNote        EntryKind = "note"
)

func (ek EntryKind) String() string {
	return string(ek)
}

func (ek EntryKind) IsValid() bool {
	switch ek {
	case EntryKindWeight,
		EntryKindMeasurement,
		EntryKindNote:
		return true
	default:
		return false
	}
}
