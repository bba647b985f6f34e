package subscription

import (
	"errors"
	"fmt"
	"time"
)

// SwitchDecision describes how an interval change must be applied.
type SwitchDecision struct {
	Proration ProrationMode `json:"proration"`
	// PreserveTrialEnd is the trial end the provider must keep, or nil.
	PreserveTrialEnd *time.Time `json:"preserve_trial_end,omitempty"`
}

// DecideSwitch decides proration and trial handling for moving a subscription
// to another billing interval. A trialing subscription keeps its trial end and
// is not prorated; any other state is prorated.
func DecideSwitch(status SubscriptionStatus, trialEnd *time.Time, interval BillingInterval) (SwitchDecision, error) {
	if !interval.Valid() {
		return SwitchDecision{}, errors.Join(ErrInvalidArgument, fmt.Errorf("%w: %q", ErrInvalidInterval, interval))
	}

	if status == StatusTrialing {
		d := SwitchDecision{Proration: ProrationNone}
		if trialEnd != nil {
			end := *trialEnd
			d.PreserveTrialEnd = &end
		}
		return d, nil
	}

	return SwitchDecision{Proration: ProrationCreate}, nil
}
