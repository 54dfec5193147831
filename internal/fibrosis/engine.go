// Package fibrosis computes the FIB-4 and APRI liver fibrosis scores and maps
// them to a tiered advisory.
package fibrosis

import (
	"fmt"
	"math"
	"strconv"
)

// DefaultASTUpperLimit is the AST upper limit of normal (U/L) used by APRI.
const DefaultASTUpperLimit = 40.0

// Result is produced fresh for every successful computation.
type Result struct {
	FIB4 float64 `json:"fib4"`
	APRI float64 `json:"apri"`
	Outcome
}

// FIB4Display is the score rounded to two decimals for display.
func (r Result) FIB4Display() string {
	return strconv.FormatFloat(r.FIB4, 'f', 2, 64)
}

// APRIDisplay is the score rounded to two decimals for display.
func (r Result) APRIDisplay() string {
	return strconv.FormatFloat(r.APRI, 'f', 2, 64)
}

// Engine is stateless after construction and safe for concurrent use.
type Engine struct {
	astULN float64
	rules  []Rule
}

// Option configures an Engine.
type Option func(*Engine)

// WithASTUpperLimit overrides the AST upper limit of normal.
func WithASTUpperLimit(uln float64) Option {
	return func(e *Engine) {
		e.astULN = uln
	}
}

// NewEngine builds an engine using the default rule table.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		astULN: DefaultASTUpperLimit,
		rules:  Rules,
	}
	for _, opt := range opts {
		opt(e)
	}
	if !isFinite(e.astULN) || e.astULN <= 0 {
		return nil, fmt.Errorf("AST upper limit of normal must be a positive number, got %v", e.astULN)
	}
	return e, nil
}

// ASTUpperLimit reports the ULN the engine divides AST by.
func (e *Engine) ASTUpperLimit() float64 {
	return e.astULN
}

// ComputeScores parses the four raw required fields and scores them.
func (e *Engine) ComputeScores(age, ast, alt, platelets string) (Result, error) {
	in, err := ParseInput(Form{Age: age, AST: ast, ALT: alt, Platelets: platelets})
	if err != nil {
		return Result{}, err
	}
	return e.Compute(in)
}

// Compute validates the required measurements and scores them.
func (e *Engine) Compute(in PatientInput) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	fib4 := FIB4(in.Age, in.AST, in.ALT, in.Platelets)
	apri := APRI(in.AST, e.astULN, in.Platelets)
	if err := checkScores(in, fib4, apri); err != nil {
		return Result{}, err
	}

	return Result{
		FIB4:    fib4,
		APRI:    apri,
		Outcome: classify(e.rules, fib4, apri),
	}, nil
}

// checkScores rejects inputs whose magnitudes overflow either score. The
// fields reported are the ones the non-finite score is computed from.
func checkScores(in PatientInput, fib4, apri float64) error {
	fib4Bad, apriBad := !isFinite(fib4), !isFinite(apri)
	if !fib4Bad && !apriBad {
		return nil
	}

	const reason = "out of range for scoring"
	verr := &ValidationError{}
	if fib4Bad {
		verr.add("age", formatValue(in.Age), reason)
	}
	verr.add("ast", formatValue(in.AST), reason)
	if fib4Bad {
		verr.add("alt", formatValue(in.ALT), reason)
	}
	verr.add("platelets", formatValue(in.Platelets), reason)
	return verr
}

// FIB4 is (age * AST) / (platelets * sqrt(ALT)).
func FIB4(age, ast, alt, platelets float64) float64 {
	return (age * ast) / (platelets * math.Sqrt(alt))
}

// APRI is (AST / ULN) / platelets * 100.
func APRI(ast, uln, platelets float64) float64 {
	return (ast / uln) / platelets * 100
}
