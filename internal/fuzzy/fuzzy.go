// Package fuzzy matches free-form player replies against the labels of
// the options currently on offer.
//
// Matching proceeds in three stages:
//
//  1. Exact match: the trimmed, case-folded reply equals a label, or is
//     the 1-based number of an option.
//  2. Prefix match: the reply is an unambiguous case-folded prefix of
//     exactly one label.
//  3. Jaro-Winkler ranking: the label with the highest Jaro-Winkler
//     similarity to the reply is selected, provided its score exceeds
//     the configurable threshold and beats the runner-up by a clear
//     margin. Ambiguous near-ties are rejected so the player is asked
//     again instead of being sent down the wrong branch.
package fuzzy

import (
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultThreshold = 0.82

	// A fuzzy winner must beat the runner-up by this much, otherwise
	// the reply is treated as ambiguous.
	ambiguityMargin = 0.04
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithThreshold sets the minimum Jaro-Winkler score required for a
// fuzzy match to be accepted. Default: 0.82.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.threshold = threshold
	}
}

// Matcher resolves player replies to option indexes. It is read-only
// after construction and safe for concurrent use.
type Matcher struct {
	threshold float64
}

// New returns a new [Matcher] configured with the supplied options.
func New(opts ...Option) *Matcher {
	m := &Matcher{threshold: defaultThreshold}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match resolves reply against labels and returns the matched index.
// When ok is false no label was a safe match and the caller should
// re-prompt.
func (m *Matcher) Match(reply string, labels []string) (index int, ok bool) {
	reply = strings.TrimSpace(reply)
	if reply == "" || len(labels) == 0 {
		return 0, false
	}

	// Stage 0: a bare number selects by position.
	if n, err := strconv.Atoi(reply); err == nil {
		if n >= 1 && n <= len(labels) {
			return n - 1, true
		}
		return 0, false
	}

	replyLower := strings.ToLower(reply)

	// Stage 1: exact case-folded match.
	for i, label := range labels {
		if strings.ToLower(strings.TrimSpace(label)) == replyLower {
			return i, true
		}
	}

	// Stage 2: unambiguous prefix.
	prefixIdx := -1
	for i, label := range labels {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(label)), replyLower) {
			if prefixIdx >= 0 {
				prefixIdx = -1
				break
			}
			prefixIdx = i
		}
	}
	if prefixIdx >= 0 {
		return prefixIdx, true
	}

	// Stage 3: Jaro-Winkler ranking with an ambiguity margin.
	best, second := -1.0, -1.0
	bestIdx := -1
	for i, label := range labels {
		labelLower := strings.ToLower(strings.TrimSpace(label))
		if labelLower == "" {
			continue
		}
		score := matchr.JaroWinkler(replyLower, labelLower, false)
		switch {
		case score > best:
			second = best
			best = score
			bestIdx = i
		case score > second:
			second = score
		}
	}
	if bestIdx >= 0 && best >= m.threshold && best-second >= ambiguityMargin {
		return bestIdx, true
	}
	return 0, false
}
