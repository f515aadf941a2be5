// Package moderation approves or rejects text with the hosted classifier.
package moderation

import (
	"context"
	"sort"

	"github.com/soyeahso/zor/internal/llm"
	"github.com/soyeahso/zor/internal/logging"
)

// Verdict is the outcome of a moderation check.
type Verdict struct {
	Approved   bool
	Violations []string // flagged category names, sorted
	Degraded   bool     // classifier unavailable; approved without a check
}

// Gate wraps a Moderator. It fails open: classifier errors approve the
// text so the assistant stays available.
type Gate struct {
	moderator llm.Moderator
	log       *logging.Logger
}

// NewGate creates a moderation gate.
func NewGate(moderator llm.Moderator, log *logging.Logger) *Gate {
	return &Gate{
		moderator: moderator,
		log:       log.Sub("moderation"),
	}
}

// Check classifies text.
func (g *Gate) Check(ctx context.Context, text string) Verdict {
	resp, err := g.moderator.Moderate(ctx, text)
	if err != nil {
		g.log.Error().Err(err).Msg("moderation failed, approving")
		return Verdict{Approved: true, Degraded: true}
	}
	if resp == nil || len(resp.Results) == 0 {
		g.log.Warn().Msg("moderation returned no results, approving")
		return Verdict{Approved: true}
	}

	var violations []string
	for category, flagged := range resp.Results[0].Categories {
		if flagged {
			violations = append(violations, category)
		}
	}
	sort.Strings(violations)

	if len(violations) > 0 {
		g.log.Warn().Strs("violations", violations).Msg("content flagged")
		return Verdict{Approved: false, Violations: violations}
	}
	return Verdict{Approved: true}
}
