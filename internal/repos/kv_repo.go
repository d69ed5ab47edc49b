package repos

import (
	"context"
	"database/sql"
	"errors"

	"shopfront/internal/cart"

	"github.com/jmoiron/sqlx"
)

// KVRepo stores string values under (scope, key). Scope is the session id.
type KVRepo struct{ db *sqlx.DB }

func NewKVRepo(db *sqlx.DB) *KVRepo { return &KVRepo{db: db} }

func (r *KVRepo) Get(ctx context.Context, scope, key string) (string, bool, error) {
	var v string
	err := r.db.GetContext(ctx, &v, `SELECT value FROM kv WHERE scope=? AND "key"=?`, scope, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *KVRepo) Set(ctx context.Context, scope, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO kv(scope, "key", value, updated_at)
	  VALUES(?, ?, ?, CURRENT_TIMESTAMP)
	  ON CONFLICT(scope, "key") DO UPDATE SET value=excluded.value, updated_at=CURRENT_TIMESTAMP
	`, scope, key, value)
	return err
}

func (r *KVRepo) Remove(ctx context.Context, scope, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE scope=? AND "key"=?`, scope, key)
	return err
}

// DropScope deletes every value stored for scope.
func (r *KVRepo) DropScope(ctx context.Context, scope string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE scope=?`, scope)
	return err
}

// Scope returns a cart.Storage view of a single scope.
func (r *KVRepo) Scope(scope string) cart.Storage {
	return scopedKV{repo: r, scope: scope}
}

type scopedKV struct {
	repo  *KVRepo
	scope string
}

func (s scopedKV) Get(ctx context.Context, key string) (string, bool, error) {
	return s.repo.Get(ctx, s.scope, key)
}

func (s scopedKV) Set(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, s.scope, key, value)
}

func (s scopedKV) Remove(ctx context.Context, key string) error {
	return s.repo.Remove(ctx, s.scope, key)
}
