// Package trial resolves promotional trial lengths.
//
// Administrators define rules that grant a number of free trial days to callers
// presenting a promo code. Several rules may share one code; each can be scoped
// to a billing plan and to a set of audience groups.
//
// A rule matches a query when it is active, its code equals the query code
// under Unicode case folding, its plan is PlanAny or the requested plan, and it
// is either unrestricted or restricted to a group containing the caller. A
// query without a plan matches only PlanAny rules; a query without a group
// matches only unrestricted rules.
//
// Among the matching rules the one with the most trial days wins, with the most
// recently updated rule breaking ties:
//
//	days := trial.BestTrial(rules, "SAVE20", trial.PlanMonthly, "")
//
// BestTrial returns 0 when nothing matches. Unknown codes are not errors.
//
// Rules live behind the Store interface. MemoryStore serves tests and rules
// loaded from YAML with LoadYAML; Postgres and MongoDB stores live in
// sibling packages.
package trial
