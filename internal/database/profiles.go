package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	apperrors "github.com/cpatton716/collectors-catalog/pkg/errors"
	"github.com/cpatton716/collectors-catalog/pkg/types"
)

const profileColumns = `id, external_id, email, username, display_preference, role, created_at`

func scanProfile(row pgx.Row) (types.Profile, error) {
	var p types.Profile
	err := row.Scan(&p.ID, &p.ExternalID, &p.Email, &p.Username, &p.DisplayPreference, &p.Role, &p.CreatedAt)
	return p, err
}

// EnsureProfile returns the profile linked to the external identity, creating
// it on first authenticated access. The generated username carries a short
// random suffix so collisions between similar email prefixes cannot occur.
func (s *service) EnsureProfile(ctx context.Context, externalID, email string) (types.Profile, error) {
	query := `
        INSERT INTO profiles (id, external_id, email, username)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (external_id) DO UPDATE SET email = EXCLUDED.email
        RETURNING ` + profileColumns
	id := uuid.New().String()
	profile, err := scanProfile(s.db.QueryRow(ctx, query, id, externalID, email, defaultUsername(email)))
	if err != nil {
		return types.Profile{}, fmt.Errorf("error ensuring profile: %w", err)
	}
	return profile, nil
}

func (s *service) GetProfileByID(ctx context.Context, id string) (types.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	profile, err := scanProfile(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Profile{}, apperrors.New(apperrors.ErrProfileNotFound, "profile not found")
		}
		return types.Profile{}, fmt.Errorf("error getting profile by id: %w", err)
	}
	return profile, nil
}

func defaultUsername(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	return local + "-" + uuid.New().String()[:8]
}
