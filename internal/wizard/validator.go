// -----------------------------------------------------------------------
// Step Validator - Pure per-step validation gating wizard transitions
// -----------------------------------------------------------------------

package wizard

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/siderealab/siderea/internal/models"
)

// MinPersonNameLength is the product rule for the shortest accepted name.
const MinPersonNameLength = 3

// stepFields maps each wizard step to the form fields it requires. Step 4 is
// review-only and requires nothing; fields are never required retroactively
// when moving backward.
var stepFields = map[models.WizardStep][]string{
	models.StepPersonalInfo: {"PersonName"},
	models.StepDateTime:     {"BirthDateTime", "BirthTimezone"},
	models.StepLocation:     {"Latitude", "Longitude", "City"},
	models.StepReview:       {},
}

// fieldMessages maps field name + failed tag to the inline message shown next
// to the field.
var fieldMessages = map[string]map[string]string{
	"PersonName": {
		"required": "Name is required",
		"min":      "Name must be at least 3 characters",
	},
	"BirthDateTime": {
		"required": "Birth date and time are required",
	},
	"BirthTimezone": {
		"required": "Birth timezone is required",
	},
	"Latitude": {
		"required": "Latitude is required",
		"gte":      "Latitude must be between -90 and 90",
		"lte":      "Latitude must be between -90 and 90",
	},
	"Longitude": {
		"required": "Longitude is required",
		"gte":      "Longitude must be between -180 and 180",
		"lte":      "Longitude must be between -180 and 180",
	},
	"City": {
		"required": "City is required",
	},
}

// jsonFieldNames maps struct field names to the JSON names used in API
// responses and inline error keys.
var jsonFieldNames = map[string]string{
	"PersonName":    "person_name",
	"BirthDateTime": "birth_datetime",
	"BirthTimezone": "birth_timezone",
	"Latitude":      "latitude",
	"Longitude":     "longitude",
	"City":          "city",
}

// Validator validates wizard form state one step at a time. It is pure: it
// only reports what the state machine uses to allow or deny a transition.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a step validator
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateStep validates the fields required by a single wizard step.
func (v *Validator) ValidateStep(step models.WizardStep, form *models.WizardFormState) *models.ValidationResult {
	fields, ok := stepFields[step]
	if !ok || len(fields) == 0 {
		// Review step (and any unknown step) has no input requirements.
		return &models.ValidationResult{Valid: true}
	}

	errors := models.FieldErrors{}

	if err := v.validate.StructPartial(form, fields...); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, ve := range verrs {
				field := ve.StructField()
				message := "Invalid value"
				if byTag, ok := fieldMessages[field]; ok {
					if msg, ok := byTag[ve.Tag()]; ok {
						message = msg
					}
				}
				errors[jsonName(field)] = message
			}
		} else {
			errors["form"] = err.Error()
		}
	}

	// Semantic checks the tag rules cannot express.
	if step == models.StepDateTime {
		v.validateDateTime(form, errors)
	}

	if len(errors) > 0 {
		return &models.ValidationResult{Valid: false, FieldErrors: errors}
	}
	return &models.ValidationResult{Valid: true}
}

// ValidateAll validates every input step in order. Used by the submission
// pipeline before building the payload.
func (v *Validator) ValidateAll(form *models.WizardFormState) *models.ValidationResult {
	merged := models.FieldErrors{}
	for step := models.FirstStep; step <= models.LastStep; step++ {
		result := v.ValidateStep(step, form)
		for field, message := range result.FieldErrors {
			if _, exists := merged[field]; !exists {
				merged[field] = message
			}
		}
	}
	if len(merged) > 0 {
		return &models.ValidationResult{Valid: false, FieldErrors: merged}
	}
	return &models.ValidationResult{Valid: true}
}

// validateDateTime checks that the datetime parses in the wizard layout and
// the timezone is a known IANA zone.
func (v *Validator) validateDateTime(form *models.WizardFormState, errors models.FieldErrors) {
	if form.BirthDateTime != "" {
		if _, err := time.Parse(models.BirthDateTimeLayout, form.BirthDateTime); err != nil {
			errors["birth_datetime"] = "Birth date and time must use format YYYY-MM-DDTHH:MM"
		}
	}
	if form.BirthTimezone != "" {
		if _, err := time.LoadLocation(form.BirthTimezone); err != nil {
			errors["birth_timezone"] = "Unknown timezone"
		}
	}
}

func jsonName(field string) string {
	if name, ok := jsonFieldNames[field]; ok {
		return name
	}
	return field
}
