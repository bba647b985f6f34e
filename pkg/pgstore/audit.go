package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/entitlekit/pkg/audit"
)

const (
	auditColumns = `id, actor, action, resource, resource_id, result, error, request_id, ip, metadata, created_at`

	insertAuditEventSQL = `INSERT INTO audit_events (` + auditColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
)

// AuditStorage keeps audit events in the audit_events table.
type AuditStorage struct {
	db DB
}

var _ audit.Storage = (*AuditStorage)(nil)

func NewAuditStorage(db DB) *AuditStorage {
	if db == nil {
		panic("pgstore: DB is required")
	}
	return &AuditStorage{db: db}
}

func (s *AuditStorage) Store(ctx context.Context, e audit.Event) error {
	meta := []byte(`{}`)
	if len(e.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(e.Metadata); err != nil {
			return errors.Join(ErrEncodeFailed, err)
		}
	}
	if _, err := s.db.Exec(ctx, insertAuditEventSQL,
		e.ID, e.Actor, e.Action, e.Resource, e.ResourceID, string(e.Result), e.Error, e.RequestID, e.IP,
		meta, e.CreatedAt.UTC(),
	); err != nil {
		return writeError(audit.ErrEventValidation, err)
	}
	return nil
}

func (s *AuditStorage) Query(ctx context.Context, c audit.Criteria) ([]audit.Event, error) {
	query, args := auditQuery(c)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			e      audit.Event
			result string
			meta   []byte
		)
		if err := rows.Scan(
			&e.ID, &e.Actor, &e.Action, &e.Resource, &e.ResourceID, &result, &e.Error, &e.RequestID, &e.IP,
			&meta, &e.CreatedAt,
		); err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		e.Result = audit.Result(result)
		if len(meta) > 0 && string(meta) != "{}" {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, errors.Join(ErrDecodeFailed, err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return events, nil
}

// auditQuery builds the filtered select for c, newest first.
func auditQuery(c audit.Criteria) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if c.Actor != "" {
		add("actor = $%d", c.Actor)
	}
	if c.Action != "" {
		add("action = $%d", c.Action)
	}
	if c.Resource != "" {
		add("resource = $%d", c.Resource)
	}
	if c.ResourceID != "" {
		add("resource_id = $%d", c.ResourceID)
	}
	if !c.Since.IsZero() {
		add("created_at >= $%d", c.Since.UTC())
	}
	if !c.Until.IsZero() {
		add("created_at < $%d", c.Until.UTC())
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + auditColumns + ` FROM audit_events`)
	if len(where) > 0 {
		b.WriteString(` WHERE ` + strings.Join(where, ` AND `))
	}
	b.WriteString(` ORDER BY created_at DESC, id DESC`)
	if c.Limit > 0 {
		args = append(args, c.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}
	if c.Offset > 0 {
		args = append(args, c.Offset)
		fmt.Fprintf(&b, ` OFFSET $%d`, len(args))
	}
	return b.String(), args
}
