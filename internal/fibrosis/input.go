package fibrosis

import (
	"math"
	"strconv"
	"strings"
)

// Status is a yes/no/unknown answer from the optional comorbidity fields.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusYes     Status = "yes"
	StatusNo      Status = "no"
)

// Form holds the raw field values as submitted by the presentation layer.
type Form struct {
	Age         string
	AST         string
	ALT         string
	Platelets   string
	BMI         string
	Diabetes    string
	Alcohol     string
	Medications string
}

// PatientInput is the immutable record built at submission time.
// BMI, Diabetes, Alcohol and Medications are advisory only and never feed the
// formulas.
type PatientInput struct {
	Age       float64
	AST       float64
	ALT       float64
	Platelets float64

	BMI         *float64
	Diabetes    Status
	Alcohol     Status
	Medications string
}

// ParseInput converts raw form values into a PatientInput. Every failing
// required field is reported in a single *ValidationError.
func ParseInput(f Form) (PatientInput, error) {
	verr := &ValidationError{}
	in := PatientInput{
		Age:         parseRequired(verr, "age", f.Age),
		AST:         parseRequired(verr, "ast", f.AST),
		ALT:         parseRequired(verr, "alt", f.ALT),
		Platelets:   parseRequired(verr, "platelets", f.Platelets),
		BMI:         parseOptional(f.BMI),
		Diabetes:    ParseStatus(f.Diabetes),
		Alcohol:     ParseStatus(f.Alcohol),
		Medications: strings.TrimSpace(f.Medications),
	}
	if err := verr.orNil(); err != nil {
		return PatientInput{}, err
	}
	return in, nil
}

// ParseStatus maps "Yes"/"No" in any case to a Status; anything else is unknown.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "true":
		return StatusYes
	case "no", "n", "false":
		return StatusNo
	default:
		return StatusUnknown
	}
}

// Validate checks the four required measurements of an already typed input.
func (p PatientInput) Validate() error {
	verr := &ValidationError{}
	checkPositive(verr, "age", formatValue(p.Age), p.Age)
	checkPositive(verr, "ast", formatValue(p.AST), p.AST)
	checkPositive(verr, "alt", formatValue(p.ALT), p.ALT)
	checkPositive(verr, "platelets", formatValue(p.Platelets), p.Platelets)
	return verr.orNil()
}

func parseRequired(verr *ValidationError, field, raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		verr.add(field, raw, "required")
		return 0
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		verr.add(field, raw, "not a number")
		return 0
	}
	checkPositive(verr, field, raw, v)
	return v
}

// checkPositive reports raw, the value as the user typed it, on failure.
func checkPositive(verr *ValidationError, field, raw string, v float64) {
	switch {
	case !isFinite(v):
		verr.add(field, raw, "not a finite number")
	case v <= 0:
		verr.add(field, raw, "must be greater than zero")
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseOptional(raw string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !isFinite(v) || v <= 0 {
		return nil
	}
	return &v
}
