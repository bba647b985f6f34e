// Package mongostore implements trial.Store on MongoDB.
//
// Each rule is one document keyed by its UUID string. The folded promo code is
// stored alongside the original in code_key so lookups and ordering ignore case.
package mongostore
