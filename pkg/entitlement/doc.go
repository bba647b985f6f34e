// Package entitlement decides which premium capabilities a user has.
//
// A decision combines three independently administered layers:
//
//   - the subscription record synced from the billing provider (free or premium tier);
//   - the global override, a product-wide switchboard used in emergencies;
//   - the user override, a per-user exception that may carry an expiry.
//
// Resolution is a pure function of the records and an explicit evaluation time.
// Nothing in this package reads the wall clock or performs I/O, so calls are
// deterministic and safe for concurrent use. Callers fetch the records (see
// SubscriptionStore and OverrideStore) and pass them in an Input.
//
// # Precedence
//
// The premium flag is taken from the first layer that has an opinion:
//
//  1. the user override's Premium value, when the override is active;
//  2. the global override's Premium value, only when PremiumOverrideEnabled is on;
//  3. the subscription tier.
//
// Every boolean capability is resolved on its own: user override, then global
// override (not gated by the master switch), then the premium flag. A capability
// override may contradict the premium flag; that is intended and preserved.
// The gallery quota follows the same order and defaults to 1000 for premium
// users and 50 otherwise.
//
// # Expiry
//
// A user override is active strictly before its ExpiresAt. Expired overrides are
// not deleted; every resolution re-checks the expiry against the supplied time and
// treats an expired record as absent.
//
// # Usage
//
//	ent, err := entitlement.Resolve(entitlement.Input{
//		UserID:       "user-1",
//		Subscription: sub,    // may be nil
//		Global:       global, // may be nil
//		User:         userOv, // may be nil
//	}, time.Now())
//	if err != nil {
//		// errors.Is(err, entitlement.ErrInvalidArgument)
//	}
//	if ent.Has(entitlement.CapabilityNoWatermark) {
//		// ...
//	}
//
// Each Entitlement carries a Trace of the decisions taken, in order, which is
// useful when answering "why does this user have premium?".
package entitlement
