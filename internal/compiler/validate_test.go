package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relive/internal/config"
)

func codes(findings []ValidationError) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.Code
	}
	return out
}

func TestValidateSample(t *testing.T) {
	findings := Validate(compileSample(t))
	assert.False(t, HasErrors(findings), "%v", findings)
}

func TestValidateFindings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"end variable during trajectory", `
talent: "1": {name: "x", condition: "SUM>1"}
event: "10": {text: "a"}
age: "0": {"10": 1}`, ErrUndeclaredVar},
		{"unknown variable in achievement", `
achievement: "1": {name: "x", opportunity: "START", condition: "FOO>1"}
event: "10": {text: "a"}
age: "0": {"10": 1}`, ErrUndeclaredVar},
		{"dangling branch", `
event: "10": {text: "a", branch: [{condition: "AGE>1", event: 99}]}
age: "0": {"10": 1}`, ErrDanglingRef},
		{"dangling age entry", `
event: "10": {text: "a"}
age: "0": {"11": 1}`, ErrDanglingRef},
		{"dangling exclude", `
talent: "1": {name: "x", exclude: [2]}
event: "10": {text: "a"}
age: "0": {"10": 1}`, ErrDanglingRef},
		{"zero weight", `
event: "10": {text: "a"}
age: "0": {"10": 0}`, ErrBadWeight},
		{"empty age", `
event: "10": {text: "a"}
age: "0": {}`, ErrEmptyAge},
		{"no ages", `event: "10": {text: "a"}`, ErrNoAges},
		{"negative max_execute", `
talent: "1": {name: "x", max_execute: -1}
event: "10": {text: "a"}
age: "0": {"10": 1}`, ErrBadExecute},
		{"celebrity with unknown talent", `
character: "1": {name: "x", talents: [5]}
event: "10": {text: "a"}
age: "0": {"10": 1}`, ErrBadCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, errs := CompileString(tt.src, LoadModeCollectAll)
			require.Empty(t, errs)
			findings := Validate(tables)
			assert.True(t, HasErrors(findings))
			assert.Contains(t, codes(findings), tt.code)
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	tables, errs := CompileString(`
event: "10": {text: "a", branch: [{condition: "AGE>1", event: 11}]}
event: "11": {text: "b", no_random: true, branch: [{condition: "AGE>1", event: 10}]}
age: "0": {"10": 1}
age: "2": {"11": 1}
`, LoadModeCollectAll)
	require.Empty(t, errs)

	findings := Validate(tables)
	assert.False(t, HasErrors(findings))
	assert.Equal(t, []string{WarnNoRandomStart, WarnAgeGap, WarnBranchCycle}, codes(findings))
}

func TestValidateConfig(t *testing.T) {
	tables := compileSample(t)
	cfg := config.Default()

	cfg.Talent.Pinned = []int{1001}
	assert.Empty(t, ValidateConfig(tables, cfg))

	cfg.Talent.Pinned = []int{1003, 4242}
	assert.Equal(t, []string{ErrUnknownPinned, ErrUnknownPinned}, codes(ValidateConfig(tables, cfg)))
}

func TestShippedTables(t *testing.T) {
	tables, errs := LoadDir("../../data", LoadModeCollectAll)
	require.Empty(t, errs)

	assert.Len(t, tables.Ages, 111)
	assert.Len(t, tables.Characters, 5)
	assert.Empty(t, Validate(tables))
	assert.Empty(t, ValidateConfig(tables, config.Default()))
}
