package main

import (
	"bytes"
	"encoding/json"

	"github.com/hepatosense/hepatosense/internal/fibrosis"
)

// formValue accepts a JSON string, number or null and keeps the raw text, so
// the form's values reach the parser exactly as typed.
type formValue string

func (v *formValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = formValue(s)
	default:
		*v = formValue(data)
	}
	return nil
}

type scoreRequest struct {
	Age         formValue `json:"age"`
	AST         formValue `json:"ast"`
	ALT         formValue `json:"alt"`
	Platelets   formValue `json:"platelets"`
	BMI         formValue `json:"bmi"`
	Diabetes    formValue `json:"diabetes"`
	Alcohol     formValue `json:"alcohol"`
	Medications formValue `json:"medications"`
}

func (r scoreRequest) form() fibrosis.Form {
	return fibrosis.Form{
		Age:         string(r.Age),
		AST:         string(r.AST),
		ALT:         string(r.ALT),
		Platelets:   string(r.Platelets),
		BMI:         string(r.BMI),
		Diabetes:    string(r.Diabetes),
		Alcohol:     string(r.Alcohol),
		Medications: string(r.Medications),
	}
}

type scoreResponse struct {
	FIB4        float64           `json:"fib4"`
	APRI        float64           `json:"apri"`
	FIB4Display string            `json:"fib4Display"`
	APRIDisplay string            `json:"apriDisplay"`
	Tier        fibrosis.Tier     `json:"tier"`
	Advice      string            `json:"advice"`
	Severity    fibrosis.Severity `json:"severity"`
	Color       string            `json:"color"`
}

func newScoreResponse(r fibrosis.Result) scoreResponse {
	return scoreResponse{
		FIB4:        r.FIB4,
		APRI:        r.APRI,
		FIB4Display: r.FIB4Display(),
		APRIDisplay: r.APRIDisplay(),
		Tier:        r.Tier,
		Advice:      r.Advice,
		Severity:    r.Severity,
		Color:       r.Color,
	}
}
