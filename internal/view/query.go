// Package view derives filtered projections over credential snapshots for
// presentation. Compute is a pure function of its inputs and is safe to
// call on every keystroke.
package view

import (
	"strings"

	"github.com/nkoryagin/accountkeeper/internal/model"
)

// StatusFilter selects credentials by lifecycle state.
type StatusFilter int

const (
	StatusAll StatusFilter = iota
	StatusActive
	StatusBanned
)

// RemarkFilter selects credentials by remark presence.
type RemarkFilter int

const (
	RemarkAll RemarkFilter = iota
	RemarkHas
	RemarkNone
)

// Compute returns the subsequence of snapshot matching all three filters,
// preserving snapshot order. Search matches case-insensitively as a
// substring of the username or remark; the empty string matches everything.
// Note the asymmetry with duplicate detection, which is case-sensitive.
func Compute(snapshot []model.Credential, search string, status StatusFilter, remark RemarkFilter) []model.Credential {
	needle := strings.ToLower(strings.TrimSpace(search))

	out := make([]model.Credential, 0, len(snapshot))
	for _, c := range snapshot {
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.Username), needle) &&
			!strings.Contains(strings.ToLower(c.Remark), needle) {
			continue
		}
		switch status {
		case StatusActive:
			if c.Status != model.StatusActive {
				continue
			}
		case StatusBanned:
			if c.Status != model.StatusBanned {
				continue
			}
		}
		switch remark {
		case RemarkHas:
			if !c.HasRemark() {
				continue
			}
		case RemarkNone:
			if c.HasRemark() {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
