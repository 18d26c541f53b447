package models

// FamousChart is a public "famous person" chart page definition, seeded from
// YAML files in the configured famous directory. The chart itself is created
// through the same Chart API as user charts.
type FamousChart struct {
	Slug        string `json:"slug" yaml:"slug"`
	Name        string `json:"name" yaml:"name"`
	Category    string `json:"category" yaml:"category"` // e.g., "musician", "scientist"
	Description string `json:"description,omitempty" yaml:"description"`

	BirthDateTime string  `json:"birth_datetime" yaml:"birth_datetime"` // Local-civil, wizard layout
	BirthTimezone string  `json:"birth_timezone" yaml:"birth_timezone"`
	Latitude      float64 `json:"latitude" yaml:"latitude"`
	Longitude     float64 `json:"longitude" yaml:"longitude"`
	City          string  `json:"city" yaml:"city"`
	Country       string  `json:"country,omitempty" yaml:"country"`

	HouseSystem string `json:"house_system,omitempty" yaml:"house_system"`
	ZodiacType  string `json:"zodiac_type,omitempty" yaml:"zodiac_type"`
	NodeType    string `json:"node_type,omitempty" yaml:"node_type"`

	// ChartID is filled once the backend chart has been created for this entry.
	ChartID string `json:"chart_id,omitempty" yaml:"chart_id"`
}
