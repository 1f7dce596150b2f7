// Package reasoning extracts inline relationship references from a
// decision's free-text reasoning field (spec §4.5 step 8):
// `builds_on: decision_<...>`, `debates: decision_<...>`, and
// `synthesizes: [decision_<...>, decision_<...>]`. There is no teacher
// equivalent; this package is grounded directly on the spec's own regex
// description rather than a pack file (documented in DESIGN.md).
package reasoning

import (
	"regexp"
	"strings"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
)

// Reference is one parsed inline relationship: a relationship keyword
// plus the decision id(s) it names.
type Reference struct {
	Relationship model.Relationship
	TargetIDs    []string
}

var idPattern = `decision_[A-Za-z0-9_]+`

var (
	buildsOnRe    = regexp.MustCompile(`(?i)\*{0,2}builds_on\*{0,2}\s*:\s*(` + idPattern + `)`)
	debatesRe     = regexp.MustCompile(`(?i)\*{0,2}debates\*{0,2}\s*:\s*(` + idPattern + `)`)
	synthesizesRe = regexp.MustCompile(`(?i)\*{0,2}synthesizes\*{0,2}\s*:\s*\[?\s*([^\]\n]+)\]?`)
	idInListRe    = regexp.MustCompile(idPattern)
)

// Parse scans text for inline relationship references and returns one
// Reference per match, in the order found. Malformed matches (a keyword
// with no recognizable decision id following it) are skipped rather than
// erroring, matching the spec's "missing targets are logged and skipped"
// — callers are expected to additionally verify each target id exists in
// storage before creating an edge.
func Parse(text string) []Reference {
	var refs []Reference

	if m := buildsOnRe.FindStringSubmatch(text); m != nil {
		refs = append(refs, Reference{Relationship: model.BuildsOn, TargetIDs: []string{m[1]}})
	}
	if m := debatesRe.FindStringSubmatch(text); m != nil {
		refs = append(refs, Reference{Relationship: model.Debates, TargetIDs: []string{m[1]}})
	}
	if m := synthesizesRe.FindStringSubmatch(text); m != nil {
		ids := idInListRe.FindAllString(m[1], -1)
		if len(ids) > 0 {
			refs = append(refs, Reference{Relationship: model.Synthesizes, TargetIDs: dedupe(ids)})
		}
	}

	return refs
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
