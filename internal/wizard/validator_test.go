package wizard

import (
	"testing"

	"github.com/siderealab/siderea/internal/models"
)

func floatPtr(v float64) *float64 {
	return &v
}

// completeForm returns a form state that passes every step.
func completeForm() *models.WizardFormState {
	form := models.NewWizardFormState("America/Sao_Paulo")
	form.PersonName = "Test Person"
	form.BirthDateTime = "1990-06-15T14:30"
	form.SetCoordinates(40.7128, -74.006)
	form.City = "New York"
	return form
}

func TestValidateStepPersonalInfo(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		person    string
		wantValid bool
		wantField string
	}{
		{"valid name", "Test Person", true, ""},
		{"empty name", "", false, "person_name"},
		{"too short", "Jo", false, "person_name"},
		{"exactly three chars", "Ana", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := completeForm()
			form.PersonName = tt.person

			result := v.ValidateStep(models.StepPersonalInfo, form)
			if result.Valid != tt.wantValid {
				t.Errorf("ValidateStep(1) valid = %v, want %v (errors: %v)", result.Valid, tt.wantValid, result.FieldErrors)
			}
			if tt.wantField != "" {
				if _, ok := result.FieldErrors[tt.wantField]; !ok {
					t.Errorf("expected field error for %q, got %v", tt.wantField, result.FieldErrors)
				}
			}
		})
	}
}

func TestValidateStepDateTime(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		datetime  string
		timezone  string
		wantValid bool
	}{
		{"valid", "1990-06-15T14:30", "America/Sao_Paulo", true},
		{"empty datetime", "", "America/Sao_Paulo", false},
		{"unparseable datetime", "June 15 1990", "America/Sao_Paulo", false},
		{"empty timezone", "1990-06-15T14:30", "", false},
		{"unknown timezone", "1990-06-15T14:30", "Mars/Olympus_Mons", false},
		{"utc is a known zone", "1990-06-15T14:30", "UTC", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := completeForm()
			form.BirthDateTime = tt.datetime
			form.BirthTimezone = tt.timezone

			result := v.ValidateStep(models.StepDateTime, form)
			if result.Valid != tt.wantValid {
				t.Errorf("ValidateStep(2) valid = %v, want %v (errors: %v)", result.Valid, tt.wantValid, result.FieldErrors)
			}
		})
	}
}

func TestValidateStepLocation(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		lat       *float64
		lon       *float64
		city      string
		wantValid bool
	}{
		{"valid manual entry", floatPtr(40.7128), floatPtr(-74.006), "New York", true},
		{"missing latitude", nil, floatPtr(-74.006), "New York", false},
		{"missing longitude", floatPtr(40.7128), nil, "New York", false},
		{"latitude above bound", floatPtr(90.5), floatPtr(-74.006), "New York", false},
		{"latitude below bound", floatPtr(-91), floatPtr(-74.006), "New York", false},
		{"longitude above bound", floatPtr(40.7128), floatPtr(180.1), "New York", false},
		{"longitude below bound", floatPtr(40.7128), floatPtr(-181), "New York", false},
		{"empty city", floatPtr(40.7128), floatPtr(-74.006), "", false},
		{"boundary values accepted", floatPtr(-90), floatPtr(180), "Edge", true},
		{"zero coordinates accepted", floatPtr(0), floatPtr(0), "Null Island", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := completeForm()
			form.Latitude = tt.lat
			form.Longitude = tt.lon
			form.City = tt.city

			result := v.ValidateStep(models.StepLocation, form)
			if result.Valid != tt.wantValid {
				t.Errorf("ValidateStep(3) valid = %v, want %v (errors: %v)", result.Valid, tt.wantValid, result.FieldErrors)
			}
		})
	}
}

func TestValidateStepReviewHasNoRequirements(t *testing.T) {
	v := NewValidator()

	// Even an empty form passes the review step: it only reflects
	// accumulated state, it does not gate input.
	form := models.NewWizardFormState("UTC")
	result := v.ValidateStep(models.StepReview, form)
	if !result.Valid {
		t.Errorf("ValidateStep(4) on empty form = invalid, want valid (errors: %v)", result.FieldErrors)
	}
}

func TestValidateAllMergesStepErrors(t *testing.T) {
	v := NewValidator()

	form := models.NewWizardFormState("America/Sao_Paulo")
	form.PersonName = "Jo" // too short
	// datetime, coordinates, city all missing

	result := v.ValidateAll(form)
	if result.Valid {
		t.Fatal("ValidateAll on incomplete form = valid, want invalid")
	}

	for _, field := range []string{"person_name", "birth_datetime", "latitude", "longitude", "city"} {
		if _, ok := result.FieldErrors[field]; !ok {
			t.Errorf("ValidateAll missing error for %q, got %v", field, result.FieldErrors)
		}
	}

	if !v.ValidateAll(completeForm()).Valid {
		t.Error("ValidateAll on complete form = invalid, want valid")
	}
}
