package models

// GeocodeCandidate is one ordered result from the Geocoding API. Selecting a
// candidate and entering coordinates manually populate the same wizard fields.
type GeocodeCandidate struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
}
