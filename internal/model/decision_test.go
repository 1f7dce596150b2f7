package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecisionValidate(t *testing.T) {
	t.Run("valid decision passes", func(t *testing.T) {
		d := &Decision{Topic: "auth", Decision: "use jwt", Confidence: 0.8}
		assert.NoError(t, d.Validate())
	})

	t.Run("missing topic fails", func(t *testing.T) {
		d := &Decision{Decision: "use jwt"}
		assert.Error(t, d.Validate())
	})

	t.Run("missing decision text fails", func(t *testing.T) {
		d := &Decision{Topic: "auth"}
		assert.Error(t, d.Validate())
	})

	t.Run("confidence out of range fails", func(t *testing.T) {
		d := &Decision{Topic: "auth", Decision: "x", Confidence: 1.5}
		assert.Error(t, d.Validate())

		d2 := &Decision{Topic: "auth", Decision: "x", Confidence: -0.1}
		assert.Error(t, d2.Validate())
	})

	t.Run("illegal outcome fails", func(t *testing.T) {
		d := &Decision{Topic: "auth", Decision: "x", Outcome: Outcome("BOGUS")}
		assert.Error(t, d.Validate())
	})

	t.Run("zero value outcome is unset and valid", func(t *testing.T) {
		d := &Decision{Topic: "auth", Decision: "x"}
		assert.NoError(t, d.Validate())
	})
}

func TestClampConfidence(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"below zero clamps to zero", -0.5, 0},
		{"above one clamps to one", 1.5, 1},
		{"in range passes through", 0.42, 0.42},
		{"exactly zero", 0, 0},
		{"exactly one", 1, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ClampConfidence(c.in))
		})
	}
}

func TestEdgeValidate(t *testing.T) {
	t.Run("valid edge passes", func(t *testing.T) {
		e := &Edge{FromID: "decision_a", ToID: "decision_b", Relationship: Refines}
		assert.NoError(t, e.Validate())
	})

	t.Run("self edge fails", func(t *testing.T) {
		e := &Edge{FromID: "decision_a", ToID: "decision_a", Relationship: Refines}
		assert.Error(t, e.Validate())
	})

	t.Run("missing endpoint fails", func(t *testing.T) {
		e := &Edge{FromID: "decision_a", Relationship: Refines}
		assert.Error(t, e.Validate())
	})

	t.Run("illegal relationship fails", func(t *testing.T) {
		e := &Edge{FromID: "decision_a", ToID: "decision_b", Relationship: Relationship("bogus")}
		assert.Error(t, e.Validate())
	})

	t.Run("illegal created_by fails", func(t *testing.T) {
		e := &Edge{FromID: "decision_a", ToID: "decision_b", Relationship: Refines, CreatedBy: CreatedBy("bot")}
		assert.Error(t, e.Validate())
	})

	t.Run("empty created_by is allowed", func(t *testing.T) {
		e := &Edge{FromID: "decision_a", ToID: "decision_b", Relationship: Refines}
		assert.NoError(t, e.Validate())
	})
}

func TestEdgeApproved(t *testing.T) {
	approved := func(b bool) *bool { return &b }

	t.Run("nil means approved", func(t *testing.T) {
		e := &Edge{ApprovedByUser: nil}
		assert.True(t, e.Approved())
	})

	t.Run("true means approved", func(t *testing.T) {
		e := &Edge{ApprovedByUser: approved(true)}
		assert.True(t, e.Approved())
	})

	t.Run("false means pending, not approved", func(t *testing.T) {
		e := &Edge{ApprovedByUser: approved(false)}
		assert.False(t, e.Approved())
	})
}
