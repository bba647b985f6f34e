package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/entitlekit/pkg/trial"
)

// DefaultCollection holds trial rules unless WithCollection says otherwise.
const DefaultCollection = "trial_rules"

// Store implements trial.Store on a MongoDB collection.
type Store struct {
	coll *mongo.Collection
}

var _ trial.Store = (*Store)(nil)

type ruleDocument struct {
	ID        string    `bson:"_id"`
	PromoCode string    `bson:"promo_code"`
	CodeKey   string    `bson:"code_key"`
	Name      string    `bson:"name"`
	TrialDays int       `bson:"trial_days"`
	IsActive  bool      `bson:"is_active"`
	Plan      string    `bson:"plan"`
	GroupIDs  []string  `bson:"group_ids,omitempty"`
	CreatedBy string    `bson:"created_by,omitempty"`
	UpdatedBy string    `bson:"updated_by,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	collection string
}

func WithCollection(name string) Option {
	return func(o *storeConfig) {
		if name != "" {
			o.collection = name
		}
	}
}

func New(db *mongo.Database, opts ...Option) *Store {
	if db == nil {
		panic("mongostore: database is required")
	}
	o := &storeConfig{collection: DefaultCollection}
	for _, opt := range opts {
		opt(o)
	}
	return &Store{coll: db.Collection(o.collection)}
}

// EnsureIndexes creates the lookup index on the folded promo code.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code_key", Value: 1}, {Key: "is_active", Value: 1}},
		Options: options.Index().SetName("code_key_active"),
	})
	if err != nil {
		return errors.Join(ErrCommandFailed, err)
	}
	return nil
}

func (s *Store) ListRules(ctx context.Context, activeOnly bool) ([]trial.Rule, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "code_key", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Join(ErrCommandFailed, err)
	}

	var docs []ruleDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Join(ErrCommandFailed, err)
	}

	rules := make([]trial.Rule, 0, len(docs))
	for _, d := range docs {
		r, err := d.rule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (s *Store) GetRule(ctx context.Context, id uuid.UUID) (*trial.Rule, error) {
	var d ruleDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, trial.ErrRuleNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrCommandFailed, err)
	}
	r, err := d.rule()
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveRule upserts by ID, assigning one when the rule has none.
func (s *Store) SaveRule(ctx context.Context, r *trial.Rule) error {
	if r == nil {
		return errors.Join(trial.ErrInvalidArgument, trial.ErrInvalidRule)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	d := toDocument(*r)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": d.ID}, d, options.Replace().SetUpsert(true)); err != nil {
		return errors.Join(ErrCommandFailed, err)
	}
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, id uuid.UUID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return errors.Join(ErrCommandFailed, err)
	}
	if res.DeletedCount == 0 {
		return trial.ErrRuleNotFound
	}
	return nil
}

func toDocument(r trial.Rule) ruleDocument {
	return ruleDocument{
		ID:        r.ID.String(),
		PromoCode: r.PromoCode,
		CodeKey:   trial.NormalizeCode(r.PromoCode),
		Name:      r.Name,
		TrialDays: r.TrialDays,
		IsActive:  r.IsActive,
		Plan:      string(r.Plan),
		GroupIDs:  r.GroupIDs,
		CreatedBy: r.CreatedBy,
		UpdatedBy: r.UpdatedBy,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func (d ruleDocument) rule() (trial.Rule, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return trial.Rule{}, errors.Join(ErrDecodeFailed, err)
	}
	return trial.Rule{
		ID:        id,
		PromoCode: d.PromoCode,
		Name:      d.Name,
		TrialDays: d.TrialDays,
		IsActive:  d.IsActive,
		Plan:      trial.Plan(d.Plan),
		GroupIDs:  d.GroupIDs,
		CreatedBy: d.CreatedBy,
		UpdatedBy: d.UpdatedBy,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}
