// Package sanitize strips unsafe markup from user supplied message text.
package sanitize

import "github.com/microcosm-cc/bluemonday"

// Sanitizer cleans message text before it is stored or broadcast.
type Sanitizer interface {
	Sanitize(text string) string
}

// HTML is a bluemonday backed Sanitizer. It is safe for concurrent use.
type HTML struct {
	policy *bluemonday.Policy
}

// New returns a sanitizer that keeps user-generated-content formatting
// (bold, links, lists) and removes scripts, styles, iframes and on* handlers.
func New() *HTML {
	p := bluemonday.UGCPolicy()
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &HTML{policy: p}
}

// Sanitize returns the cleaned text.
func (h *HTML) Sanitize(text string) string {
	return h.policy.Sanitize(text)
}
