package trial

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadYAML reads rules from a document of the form:
//
//	rules:
//	  - id: 0b8f5d4e-3f43-4a8e-9a4e-1b2c3d4e5f60
//	    promo_code: SAVE20
//	    name: Spring promo
//	    trial_days: 14
//	    is_active: true
//	    plan: monthly
//	    group_ids: [beta]
//
// Every rule needs a unique id so tie-breaks stay stable across reloads.
// Every rule is validated; the first invalid rule fails the whole load.
func LoadYAML(r io.Reader) ([]Rule, error) {
	var f rulesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrFailedToLoadYML, err)
	}

	seen := make(map[uuid.UUID]struct{}, len(f.Rules))
	for i, rule := range f.Rules {
		if rule.ID == uuid.Nil {
			return nil, errors.Join(ErrFailedToLoadYML, fmt.Errorf("rule #%d (%s): %w", i, rule.PromoCode, ErrMissingRuleID))
		}
		if _, dup := seen[rule.ID]; dup {
			return nil, errors.Join(ErrFailedToLoadYML, fmt.Errorf("rule #%d (%s): %w: %s", i, rule.PromoCode, ErrDuplicateRuleID, rule.ID))
		}
		seen[rule.ID] = struct{}{}
		if err := rule.Validate(); err != nil {
			return nil, errors.Join(ErrFailedToLoadYML, fmt.Errorf("rule #%d (%s): %w", i, rule.PromoCode, err))
		}
	}
	return f.Rules, nil
}

// LoadYAMLFile opens path and calls LoadYAML.
func LoadYAMLFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadYML, err)
	}
	defer f.Close()
	return LoadYAML(f)
}
