package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOutcome(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    Outcome
		wantOK  bool
	}{
		{"empty string normalizes to unset", "", Unset, true},
		{"lowercase success", "success", Success, true},
		{"uppercase failed", "FAILED", Failed, true},
		{"mixed case partial with whitespace", "  Partial ", Partial, true},
		{"unrecognized value rejected", "bogus", Unset, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := ParseOutcome(c.in)
			assert.Equal(t, c.want, got)
			assert.Equal(t, c.wantOK, ok)
		})
	}
}

func TestOutcomeValid(t *testing.T) {
	for _, o := range []Outcome{Unset, Success, Failed, Partial} {
		assert.True(t, o.Valid(), "%q should be valid", o)
	}
	assert.False(t, Outcome("BOGUS").Valid())
}

func TestOutcomeImportance(t *testing.T) {
	cases := []struct {
		o    Outcome
		want float64
	}{
		{Failed, 1.0},
		{Partial, 0.7},
		{Success, 0.5},
		{Unset, 0.3},
	}
	for _, c := range cases {
		t.Run(string(c.o)+"_importance", func(t *testing.T) {
			assert.Equal(t, c.want, c.o.Importance())
		})
	}
}
