package models

import "time"

// InterpretationSection is one AI-generated reading section (e.g., "sun",
// "temperament", "arabic_parts").
type InterpretationSection struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// InterpretationSet is the language-specific interpretation payload for a
// chart, generated server-side and fetched with an explicit lang parameter.
type InterpretationSet struct {
	ChartID     string                  `json:"chart_id"`
	Language    string                  `json:"language"`
	Sections    []InterpretationSection `json:"sections"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// CachedInterpretations is a per-language interpretation payload stored in
// Badger, keyed like the chart cache.
type CachedInterpretations struct {
	Key       string             `json:"key"` // chartID + ":" + language
	ChartID   string             `json:"chart_id"`
	Language  string             `json:"language"`
	Set       *InterpretationSet `json:"set"`
	FetchedAt time.Time          `json:"fetched_at"`
}
