package models

import "time"

type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

type SampleType string

const (
	SampleUpdate       SampleType = "update"
	SampleLogin        SampleType = "login"
	SampleRegistration SampleType = "registration"
)

// LocationEntry is one immutable row of a user's location history, keyed by
// the sample time.
type LocationEntry struct {
	Key        string     `json:"id"`
	Location   Location   `json:"location"`
	Type       SampleType `json:"type"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// historyKeyLayout keeps every fraction digit so keys sort like times.
const historyKeyLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryKey names a history entry by its sample time and type. Samples of
// different types taken at the same instant get distinct keys.
func HistoryKey(t time.Time, typ SampleType) string {
	return t.UTC().Format(historyKeyLayout) + "-" + string(typ)
}
