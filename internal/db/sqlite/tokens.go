package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/textset/internal/db"
	"github.com/kailas-cloud/textset/internal/domain"
)

// HashToken returns the stored form of a bearer credential.
func HashToken(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}

// ResolveIdentity maps a bearer credential to its user. Unknown, revoked and
// expired tokens all yield domain.ErrUnauthorized.
func (s *Store) ResolveIdentity(ctx context.Context, credential string) (uuid.UUID, error) {
	if credential == "" {
		return uuid.Nil, fmt.Errorf("empty credential: %w", domain.ErrUnauthorized)
	}

	var (
		userID             string
		expiresAt, revoked sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM access_tokens WHERE token_hash = ?",
		HashToken(credential),
	).Scan(&userID, &expiresAt, &revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("unknown token: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return uuid.Nil, &db.Error{Op: db.OpSelect, Err: err}
	}

	if revoked.Valid && revoked.String != "" {
		return uuid.Nil, fmt.Errorf("token revoked: %w", domain.ErrUnauthorized)
	}
	if expiresAt.Valid && expiresAt.String != "" {
		exp, err := time.Parse(time.RFC3339Nano, expiresAt.String)
		if err != nil {
			return uuid.Nil, fmt.Errorf("token expiry %q: %w", expiresAt.String, domain.ErrUnauthorized)
		}
		if !s.now().Before(exp) {
			return uuid.Nil, fmt.Errorf("token expired: %w", domain.ErrUnauthorized)
		}
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token user id %q: %w", userID, err)
	}
	return id, nil
}
