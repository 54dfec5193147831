package fibrosis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(opts...)
	require.NoError(t, err)
	return e
}

func TestComputeScores_Scenarios(t *testing.T) {
	tests := []struct {
		name                     string
		age, ast, alt, platelets string
		wantFIB4, wantAPRI       float64
		wantTier                 Tier
		wantSeverity             Severity
		wantColor                string
	}{
		{
			name: "normal labs",
			age:  "40", ast: "30", alt: "30", platelets: "200",
			wantFIB4: 1.0954, wantAPRI: 0.375,
			wantTier: TierNoSignificantFibrosis, wantSeverity: SeverityLow, wantColor: "green",
		},
		{
			name: "both scores high",
			age:  "60", ast: "80", alt: "40", platelets: "150",
			wantFIB4: 5.0596, wantAPRI: 1.3333,
			wantTier: TierAdvancedFibrosis, wantSeverity: SeverityHigh, wantColor: "red",
		},
		{
			name: "both scores just inside the low band",
			age:  "50", ast: "35", alt: "90", platelets: "180",
			wantFIB4: 1.0248, wantAPRI: 0.4861,
			wantTier: TierNoSignificantFibrosis, wantSeverity: SeverityLow, wantColor: "green",
		},
		{
			name: "low fib4 with moderate apri",
			age:  "25", ast: "24", alt: "36", platelets: "100",
			wantFIB4: 1.0, wantAPRI: 0.6,
			wantTier: TierModerateFibrosis, wantSeverity: SeverityModerate, wantColor: "yellow",
		},
	}

	engine := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.ComputeScores(tt.age, tt.ast, tt.alt, tt.platelets)
			require.NoError(t, err)

			assert.InDelta(t, tt.wantFIB4, result.FIB4, 0.0005)
			assert.InDelta(t, tt.wantAPRI, result.APRI, 0.0005)
			assert.Equal(t, tt.wantTier, result.Tier)
			assert.Equal(t, tt.wantSeverity, result.Severity)
			assert.Equal(t, tt.wantColor, result.Color)
			assert.NotEmpty(t, result.Advice)
		})
	}
}

func TestComputeScores_Deterministic(t *testing.T) {
	engine := newTestEngine(t)

	first, err := engine.ComputeScores("57", "43.5", "61", "172")
	require.NoError(t, err)
	second, err := engine.ComputeScores("57", "43.5", "61", "172")
	require.NoError(t, err)

	assert.Equal(t, math.Float64bits(first.FIB4), math.Float64bits(second.FIB4))
	assert.Equal(t, math.Float64bits(first.APRI), math.Float64bits(second.APRI))
	assert.Equal(t, first, second)
}

func TestComputeScores_InvalidRequiredFields(t *testing.T) {
	tests := []struct {
		name                     string
		age, ast, alt, platelets string
		wantFields               []string
	}{
		{name: "empty ast", age: "40", ast: "", alt: "30", platelets: "200", wantFields: []string{"ast"}},
		{name: "zero platelets", age: "40", ast: "30", alt: "30", platelets: "0", wantFields: []string{"platelets"}},
		{name: "negative age", age: "-1", ast: "30", alt: "30", platelets: "200", wantFields: []string{"age"}},
		{name: "non-numeric alt", age: "40", ast: "30", alt: "abc", platelets: "200", wantFields: []string{"alt"}},
		{name: "trailing garbage", age: "40", ast: "30x", alt: "30", platelets: "200", wantFields: []string{"ast"}},
		{name: "not finite", age: "NaN", ast: "30", alt: "+Inf", platelets: "200", wantFields: []string{"age", "alt"}},
		{name: "all missing", wantFields: []string{"age", "ast", "alt", "platelets"}},
	}

	engine := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.ComputeScores(tt.age, tt.ast, tt.alt, tt.platelets)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Equal(t, Result{}, result, "no partial result may be produced")

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			got := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				got = append(got, f.Field)
			}
			assert.Equal(t, tt.wantFields, got)
		})
	}
}

func TestCompute_ValidatesTypedInput(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Compute(PatientInput{Age: 40, AST: 30, ALT: 0, Platelets: 200})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "alt")
}

func TestCompute_IgnoresOptionalFields(t *testing.T) {
	engine := newTestEngine(t)
	bmi := 41.0

	bare, err := engine.Compute(PatientInput{Age: 52, AST: 48, ALT: 40, Platelets: 160})
	require.NoError(t, err)
	full, err := engine.Compute(PatientInput{
		Age: 52, AST: 48, ALT: 40, Platelets: 160,
		BMI: &bmi, Diabetes: StatusYes, Alcohol: StatusYes, Medications: "metformin",
	})
	require.NoError(t, err)

	assert.Equal(t, bare, full)
}

func TestWithASTUpperLimit(t *testing.T) {
	defaults := newTestEngine(t)
	assert.Equal(t, DefaultASTUpperLimit, defaults.ASTUpperLimit())

	result, err := defaults.ComputeScores("20", "28", "49", "100")
	require.NoError(t, err)
	assert.InDelta(t, 0.7, result.APRI, 1e-9)
	assert.Equal(t, TierModerateFibrosis, result.Tier)

	engine := newTestEngine(t, WithASTUpperLimit(20))
	assert.Equal(t, 20.0, engine.ASTUpperLimit())

	result, err = engine.ComputeScores("20", "28", "49", "100")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, result.FIB4, 1e-9)
	assert.InDelta(t, 1.4, result.APRI, 1e-9)
	assert.Equal(t, TierAdvancedFibrosis, result.Tier)

	_, err = NewEngine(WithASTUpperLimit(0))
	assert.Error(t, err)
	_, err = NewEngine(WithASTUpperLimit(math.NaN()))
	assert.Error(t, err)
}

func TestResultDisplay(t *testing.T) {
	r := Result{FIB4: 1.09544511501, APRI: 0.3761}
	assert.Equal(t, "1.10", r.FIB4Display())
	assert.Equal(t, "0.38", r.APRIDisplay())
}

func TestFormulas(t *testing.T) {
	assert.InDelta(t, 1200/(200*math.Sqrt(30)), FIB4(40, 30, 30, 200), 1e-12)
	assert.InDelta(t, 0.375, APRI(30, DefaultASTUpperLimit, 200), 1e-12)
}

func TestComputeScores_RejectsScoresThatOverflow(t *testing.T) {
	tests := []struct {
		name                     string
		age, ast, alt, platelets string
		wantFields               []string
	}{
		{name: "huge age and ast", age: "1e200", ast: "1e200", alt: "1", platelets: "1", wantFields: []string{"age", "ast", "alt", "platelets"}},
		{name: "subnormal platelets", age: "40", ast: "30", alt: "30", platelets: "1e-320", wantFields: []string{"age", "ast", "alt", "platelets"}},
		{name: "only apri overflows", age: "1", ast: "1e300", alt: "1e300", platelets: "1e-10", wantFields: []string{"ast", "platelets"}},
	}

	engine := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.ComputeScores(tt.age, tt.ast, tt.alt, tt.platelets)
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, Result{}, result)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			got := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				got = append(got, f.Field)
				assert.Equal(t, "out of range for scoring", f.Reason)
			}
			assert.Equal(t, tt.wantFields, got)
		})
	}
}

func TestComputeScores_ScoresAreFinite(t *testing.T) {
	magnitudes := []string{"1e-300", "1e-10", "0.5", "1", "40", "1e10", "1e150", "1e300"}

	engine := newTestEngine(t)
	for _, age := range magnitudes {
		for _, ast := range magnitudes {
			for _, alt := range magnitudes {
				for _, platelets := range magnitudes {
					result, err := engine.ComputeScores(age, ast, alt, platelets)
					if err != nil {
						require.ErrorIs(t, err, ErrValidation)
						continue
					}
					assert.False(t, math.IsInf(result.FIB4, 0) || math.IsNaN(result.FIB4),
						"fib4 for age=%s ast=%s alt=%s platelets=%s", age, ast, alt, platelets)
					assert.False(t, math.IsInf(result.APRI, 0) || math.IsNaN(result.APRI),
						"apri for age=%s ast=%s alt=%s platelets=%s", age, ast, alt, platelets)
				}
			}
		}
	}
}

func TestComputeScores_UnderflowReportsTypedValue(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.ComputeScores("40", "30", "30", "1e-400")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, FieldError{Field: "platelets", Value: "1e-400", Reason: "must be greater than zero"}, verr.Fields[0])
}
