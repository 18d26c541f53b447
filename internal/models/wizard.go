// -----------------------------------------------------------------------
// Wizard - Multi-step chart creation/edit form state
// -----------------------------------------------------------------------

package models

import "time"

// WizardStep enumerates the screens of the chart creation wizard.
type WizardStep int

const (
	StepPersonalInfo WizardStep = iota + 1 // 1
	StepDateTime                           // 2
	StepLocation                           // 3
	StepReview                             // 4
)

const (
	// FirstStep is the initial wizard step on session creation.
	FirstStep = StepPersonalInfo
	// LastStep is the review step from which submission is allowed.
	LastStep = StepReview
)

// String returns the label shown in the wizard progress indicator.
func (s WizardStep) String() string {
	switch s {
	case StepPersonalInfo:
		return "Personal Info"
	case StepDateTime:
		return "Date & Time"
	case StepLocation:
		return "Location"
	case StepReview:
		return "Review"
	default:
		return "Unknown"
	}
}

// Valid reports whether the step is within the wizard's range.
func (s WizardStep) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// House system, zodiac and node type technical settings.
const (
	DefaultHouseSystem = "placidus"
	DefaultZodiacType  = "tropical"
	DefaultNodeType    = "true"
)

// BirthDateTimeLayout is the local-civil datetime format used by the wizard.
// The value carries no offset; the selected birth timezone resolves it to an
// absolute instant at submission time.
const BirthDateTimeLayout = "2006-01-02T15:04"

// WizardFormState holds the accumulated form values of an in-progress chart
// creation or edit. Coordinates are pointers so "not yet entered" is
// distinguishable from a legitimate 0.0.
type WizardFormState struct {
	PersonName string `json:"person_name" validate:"required,min=3"`
	Gender     string `json:"gender,omitempty"`

	BirthDateTime string `json:"birth_datetime" validate:"required"`
	BirthTimezone string `json:"birth_timezone" validate:"required"`

	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	City      string   `json:"city" validate:"required"`
	Country   string   `json:"country,omitempty"`

	Notes string `json:"notes,omitempty"`

	HouseSystem string `json:"house_system"`
	ZodiacType  string `json:"zodiac_type"`
	NodeType    string `json:"node_type"`
}

// NewWizardFormState returns a form state with technical-setting defaults
// applied and the given default birth timezone.
func NewWizardFormState(defaultTimezone string) *WizardFormState {
	return &WizardFormState{
		BirthTimezone: defaultTimezone,
		HouseSystem:   DefaultHouseSystem,
		ZodiacType:    DefaultZodiacType,
		NodeType:      DefaultNodeType,
	}
}

// SetCoordinates populates the coordinate fields. Geocoding selection and
// manual entry both go through here, so the validator treats them identically.
func (f *WizardFormState) SetCoordinates(lat, lon float64) {
	f.Latitude = &lat
	f.Longitude = &lon
}

// Clone returns a deep copy of the form state.
func (f *WizardFormState) Clone() *WizardFormState {
	clone := *f
	if f.Latitude != nil {
		lat := *f.Latitude
		clone.Latitude = &lat
	}
	if f.Longitude != nil {
		lon := *f.Longitude
		clone.Longitude = &lon
	}
	return &clone
}

// FieldErrors maps form field names to human-readable validation messages.
type FieldErrors map[string]string

// ValidationResult is the outcome of validating one wizard step.
type ValidationResult struct {
	Valid       bool        `json:"valid"`
	FieldErrors FieldErrors `json:"field_errors,omitempty"`
}

// WizardSession is a live wizard keyed by session ID. Sessions are owned by
// the wizard service; the Step and Form fields are only mutated through the
// state machine.
type WizardSession struct {
	ID        string           `json:"id"`
	ChartID   string           `json:"chart_id,omitempty"` // Non-empty for the edit variant
	Step      WizardStep       `json:"step"`
	Form      *WizardFormState `json:"form"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Expired reports whether the session has been idle longer than ttl.
func (s *WizardSession) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.UpdatedAt) > ttl
}
