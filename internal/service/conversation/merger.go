package conversation

import (
	"time"

	"github.com/bafoka-labs/voicebank/internal/domain"
	"github.com/bafoka-labs/voicebank/internal/service/validation"
)

// MergeOutcome is the merger's verdict on one turn.
type MergeOutcome struct {
	Pending *domain.PendingIntent

	// Untouched is true when the turn was classified "unknown" and the
	// existing pending intent (if any) was left as-is.
	Untouched bool

	IsComplete     bool
	ExecutionReady bool
}

// Merge reconciles a newly analyzed turn with the session's pending intent.
//
// Rules:
//   - unknown intent: never merges with or clears the pending intent; the
//     turn is surfaced for clarification but in-flight slots survive.
//   - different intent: topic switch, old slots are discarded wholesale.
//   - same intent: right-biased shallow union, new values win per key.
//
// Missing parameters are always recomputed from the intent schema against the
// merged set, so they can never go stale relative to the collected slots.
func Merge(existing *domain.PendingIntent, turn *domain.NLUResult, now time.Time) MergeOutcome {
	if turn.Intent == domain.IntentUnknown {
		return MergeOutcome{Pending: existing, Untouched: true}
	}

	collected := make(map[string]string)
	if existing != nil && existing.Intent == turn.Intent {
		for k, v := range existing.Collected {
			collected[k] = v
		}
	}
	for k, v := range turn.Parameters {
		collected[k] = v
	}

	missing := validation.MissingParams(domain.RequiredParams(turn.Intent), collected)

	complete := len(missing) == 0 && len(turn.ValidationErrors) == 0

	return MergeOutcome{
		Pending: &domain.PendingIntent{
			Intent:     turn.Intent,
			Collected:  collected,
			Missing:    missing,
			RecordedAt: now,
		},
		IsComplete:     complete,
		ExecutionReady: complete && !turn.SecurityAlert,
	}
}
