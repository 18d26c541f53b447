// -----------------------------------------------------------------------
// Chart - Server-side natal chart resource and its async generation job
// -----------------------------------------------------------------------

package models

import "time"

// JobStatus represents the lifecycle of a server-side chart or export job.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal returns true if the status is terminal. Polling must stop at a
// terminal status and never resume.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ChartJob is the client-side view of a server-tracked asynchronous
// calculation task. Created by the submission pipeline, mutated only by poll
// responses.
type ChartJob struct {
	ID           string    `json:"id"`
	Status       JobStatus `json:"status"`
	Progress     int       `json:"progress"` // 0..100
	ErrorMessage string    `json:"error_message,omitempty"`
}

// ChartSubmission is the payload sent to the Chart API on create/update.
// BirthUTC is the absolute instant obtained by resolving the wizard's
// local-civil datetime in the selected birth timezone.
type ChartSubmission struct {
	PersonName    string  `json:"person_name"`
	Gender        string  `json:"gender,omitempty"`
	BirthUTC      string  `json:"birth_utc"` // RFC 3339
	BirthTimezone string  `json:"birth_timezone"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	City          string  `json:"city"`
	Country       string  `json:"country,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	HouseSystem   string  `json:"house_system"`
	ZodiacType    string  `json:"zodiac_type"`
	NodeType      string  `json:"node_type"`
}

// RequiresRecalculation reports whether updating original to updated forces a
// server-side chart recalculation. Personal fields (name, gender, notes) do
// not; birth data and technical settings do. The server enforces this
// contract; the client uses it to drive confirmation messaging.
func RequiresRecalculation(original, updated *ChartSubmission) bool {
	if original == nil || updated == nil {
		return true
	}
	return original.BirthUTC != updated.BirthUTC ||
		original.BirthTimezone != updated.BirthTimezone ||
		original.Latitude != updated.Latitude ||
		original.Longitude != updated.Longitude ||
		original.HouseSystem != updated.HouseSystem ||
		original.ZodiacType != updated.ZodiacType ||
		original.NodeType != updated.NodeType
}

// PlanetPosition is a computed planetary placement rendered on the chart wheel.
type PlanetPosition struct {
	Name       string  `json:"name"`
	Sign       string  `json:"sign"`
	Degree     float64 `json:"degree"`
	House      int     `json:"house"`
	Retrograde bool    `json:"retrograde"`
	Dignity    string  `json:"dignity,omitempty"`
}

// HouseCusp is a computed house boundary.
type HouseCusp struct {
	Number int     `json:"number"`
	Sign   string  `json:"sign"`
	Degree float64 `json:"degree"`
}

// Aspect is a detected angular relationship between two planets.
type Aspect struct {
	Type     string  `json:"type"` // conjunction, opposition, trine, square, sextile
	PlanetA  string  `json:"planet_a"`
	PlanetB  string  `json:"planet_b"`
	Orb      float64 `json:"orb"`
	Applying bool    `json:"applying"`
}

// ArabicPart is a computed lot (e.g., Part of Fortune).
type ArabicPart struct {
	Name   string  `json:"name"`
	Sign   string  `json:"sign"`
	Degree float64 `json:"degree"`
	House  int     `json:"house"`
}

// Temperament is the server-computed temperament balance.
type Temperament struct {
	Sanguine    int    `json:"sanguine"`
	Choleric    int    `json:"choleric"`
	Melancholic int    `json:"melancholic"`
	Phlegmatic  int    `json:"phlegmatic"`
	Dominant    string `json:"dominant"`
}

// Chart is the full chart record returned by the Chart API. The astrological
// payload (planets, houses, aspects, parts, temperament, sect) is computed
// server-side and rendered here as-is.
type Chart struct {
	ID string `json:"id"`

	PersonName    string  `json:"person_name"`
	Gender        string  `json:"gender,omitempty"`
	BirthUTC      string  `json:"birth_utc"`
	BirthTimezone string  `json:"birth_timezone"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	City          string  `json:"city"`
	Country       string  `json:"country,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	HouseSystem   string  `json:"house_system"`
	ZodiacType    string  `json:"zodiac_type"`
	NodeType      string  `json:"node_type"`

	Status       JobStatus `json:"status"`
	Progress     int       `json:"progress"`
	ErrorMessage string    `json:"error_message,omitempty"`

	Language    string           `json:"language,omitempty"`
	Planets     []PlanetPosition `json:"planets,omitempty"`
	Houses      []HouseCusp      `json:"houses,omitempty"`
	Aspects     []Aspect         `json:"aspects,omitempty"`
	ArabicParts []ArabicPart     `json:"arabic_parts,omitempty"`
	Temperament *Temperament     `json:"temperament,omitempty"`
	Sect        string           `json:"sect,omitempty"` // "diurnal" or "nocturnal"

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Job extracts the job view of a chart record.
func (c *Chart) Job() *ChartJob {
	return &ChartJob{
		ID:           c.ID,
		Status:       c.Status,
		Progress:     c.Progress,
		ErrorMessage: c.ErrorMessage,
	}
}

// Submission rebuilds the submission payload from a loaded chart record.
// The edit wizard uses this as the baseline for change detection.
func (c *Chart) Submission() *ChartSubmission {
	return &ChartSubmission{
		PersonName:    c.PersonName,
		Gender:        c.Gender,
		BirthUTC:      c.BirthUTC,
		BirthTimezone: c.BirthTimezone,
		Latitude:      c.Latitude,
		Longitude:     c.Longitude,
		City:          c.City,
		Country:       c.Country,
		Notes:         c.Notes,
		HouseSystem:   c.HouseSystem,
		ZodiacType:    c.ZodiacType,
		NodeType:      c.NodeType,
	}
}

// CachedChart is a per-language chart payload stored in Badger so a language
// switch that round-trips back does not always re-hit the backend.
type CachedChart struct {
	Key       string    `json:"key"` // chartID + ":" + language
	ChartID   string    `json:"chart_id"`
	Language  string    `json:"language"`
	Chart     *Chart    `json:"chart"`
	FetchedAt time.Time `json:"fetched_at"`
}
