package trial

// BestRule returns the matching rule with the most trial days.
// Ties go to the most recently updated rule, then to the lowest ID so the
// result does not depend on the order rules were loaded in.
func BestRule(rules []Rule, q Query) (Rule, bool) {
	var (
		best  Rule
		found bool
	)
	for _, r := range rules {
		if !r.Matches(q) {
			continue
		}
		if !found || better(r, best) {
			best, found = r, true
		}
	}
	if !found {
		return Rule{}, false
	}
	return best.Clone(), true
}

// BestTrial returns the trial length for a promo code, or 0 when no rule
// matches. Unknown or inactive codes are not an error.
func BestTrial(rules []Rule, promoCode string, plan Plan, groupID string) int {
	r, ok := BestRule(rules, Query{PromoCode: promoCode, Plan: plan, GroupID: groupID})
	if !ok {
		return 0
	}
	return r.TrialDays
}

func better(a, b Rule) bool {
	if a.TrialDays != b.TrialDays {
		return a.TrialDays > b.TrialDays
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID.String() < b.ID.String()
}
