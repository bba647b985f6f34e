package pgstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/pg"
)

const (
	getGlobalSQL = `
SELECT premium, premium_override_enabled, capabilities, gallery_quota, reason, updated_by, updated_at
FROM global_override
WHERE id`

	upsertGlobalSQL = `
INSERT INTO global_override (id, premium, premium_override_enabled, capabilities, gallery_quota, reason, updated_by, updated_at)
VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    premium = EXCLUDED.premium,
    premium_override_enabled = EXCLUDED.premium_override_enabled,
    capabilities = EXCLUDED.capabilities,
    gallery_quota = EXCLUDED.gallery_quota,
    reason = EXCLUDED.reason,
    updated_by = EXCLUDED.updated_by,
    updated_at = EXCLUDED.updated_at`

	deleteGlobalSQL = `DELETE FROM global_override WHERE id`

	userOverrideColumns = `user_id, premium, capabilities, gallery_quota, expires_at, reason, created_by, created_at`

	getUserOverrideSQL = `SELECT ` + userOverrideColumns + ` FROM user_overrides WHERE user_id = $1`

	listUserOverridesSQL = `SELECT ` + userOverrideColumns + ` FROM user_overrides ORDER BY user_id`

	upsertUserOverrideSQL = `
INSERT INTO user_overrides (` + userOverrideColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id) DO UPDATE SET
    premium = EXCLUDED.premium,
    capabilities = EXCLUDED.capabilities,
    gallery_quota = EXCLUDED.gallery_quota,
    expires_at = EXCLUDED.expires_at,
    reason = EXCLUDED.reason,
    created_by = EXCLUDED.created_by,
    created_at = EXCLUDED.created_at`

	deleteUserOverrideSQL = `DELETE FROM user_overrides WHERE user_id = $1`
)

func (s *Store) GetGlobalOverride(ctx context.Context) (*entitlement.GlobalOverride, error) {
	var (
		g    entitlement.GlobalOverride
		caps []byte
	)
	err := s.db.QueryRow(ctx, getGlobalSQL).Scan(
		&g.Premium, &g.PremiumOverrideEnabled, &caps, &g.GalleryQuota, &g.Reason, &g.UpdatedBy, &g.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, entitlement.ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	if g.Capabilities, err = decodeCapabilities(caps); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) SaveGlobalOverride(ctx context.Context, g *entitlement.GlobalOverride) error {
	if g == nil {
		return entitlement.ErrNilRecord
	}
	if err := g.Validate(); err != nil {
		return err
	}
	caps, err := encodeCapabilities(g.Capabilities)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, upsertGlobalSQL,
		g.Premium, g.PremiumOverrideEnabled, caps, g.GalleryQuota, g.Reason, g.UpdatedBy, g.UpdatedAt.UTC(),
	); err != nil {
		return writeError(entitlement.ErrInvalidArgument, err)
	}
	return nil
}

func (s *Store) ResetGlobalOverride(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, deleteGlobalSQL); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

func (s *Store) GetUserOverride(ctx context.Context, userID string) (*entitlement.UserOverride, error) {
	o, err := scanUserOverride(s.db.QueryRow(ctx, getUserOverrideSQL, userID))
	if pg.IsNotFoundError(err) {
		return nil, entitlement.ErrNotFound
	}
	return o, err
}

func (s *Store) SaveUserOverride(ctx context.Context, o *entitlement.UserOverride) error {
	if o == nil {
		return entitlement.ErrNilRecord
	}
	if err := o.Validate(); err != nil {
		return err
	}
	caps, err := encodeCapabilities(o.Capabilities)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, upsertUserOverrideSQL,
		o.UserID, o.Premium, caps, o.GalleryQuota, o.ExpiresAt, o.Reason, o.CreatedBy, o.CreatedAt.UTC(),
	); err != nil {
		return writeError(entitlement.ErrInvalidArgument, err)
	}
	return nil
}

func (s *Store) DeleteUserOverride(ctx context.Context, userID string) error {
	tag, err := s.db.Exec(ctx, deleteUserOverrideSQL, userID)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return entitlement.ErrNotFound
	}
	return nil
}

// ListUserOverrides returns every stored override, expired ones included.
func (s *Store) ListUserOverrides(ctx context.Context) ([]*entitlement.UserOverride, error) {
	rows, err := s.db.Query(ctx, listUserOverridesSQL)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var result []*entitlement.UserOverride
	for rows.Next() {
		o, err := scanUserOverride(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUserOverride(row scanner) (*entitlement.UserOverride, error) {
	var (
		o    entitlement.UserOverride
		caps []byte
	)
	err := row.Scan(&o.UserID, &o.Premium, &caps, &o.GalleryQuota, &o.ExpiresAt, &o.Reason, &o.CreatedBy, &o.CreatedAt)
	if pg.IsNotFoundError(err) {
		return nil, err
	}
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	if o.Capabilities, err = decodeCapabilities(caps); err != nil {
		return nil, err
	}
	return &o, nil
}

// encodeCapabilities stores only set tri-states, as a JSON object of booleans.
func encodeCapabilities(caps map[entitlement.Capability]entitlement.TriState) ([]byte, error) {
	out := make(map[entitlement.Capability]bool, len(caps))
	for c, ts := range caps {
		if v, ok := ts.Bool(); ok {
			out[c] = v
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, errors.Join(ErrEncodeFailed, err)
	}
	return b, nil
}

func decodeCapabilities(b []byte) (map[entitlement.Capability]entitlement.TriState, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var raw map[entitlement.Capability]bool
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, errors.Join(ErrDecodeFailed, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	caps := make(map[entitlement.Capability]entitlement.TriState, len(raw))
	for c, v := range raw {
		if !c.Valid() {
			return nil, errors.Join(ErrDecodeFailed, entitlement.ErrUnknownCapability)
		}
		caps[c] = entitlement.Set(v)
	}
	return caps, nil
}
