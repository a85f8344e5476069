package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/duaneandrea/digitalk-test/internal/domain"
)

type userRow struct {
	ID    int64          `db:"id"`
	Role  string         `db:"role"`
	Name  string         `db:"name"`
	Email string         `db:"email"`
	Phone sql.NullString `db:"phone"`
}

// GetUser resolves a participant and, for translators, the languages they cover
func (s *Storage) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var row userRow
	query := `SELECT id, role, name, email, phone FROM users WHERE id = $1`

	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoRecord
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user := &domain.User{
		ID:    row.ID,
		Role:  domain.Role(row.Role),
		Name:  row.Name,
		Email: row.Email,
		Phone: row.Phone.String,
	}

	if user.Role == domain.RoleTranslator {
		langQuery := `SELECT language_id FROM translator_languages WHERE user_id = $1 ORDER BY language_id`
		if err := s.db.SelectContext(ctx, &user.LanguageIDs, langQuery, id); err != nil {
			return nil, fmt.Errorf("failed to get translator languages: %w", err)
		}
	}

	return user, nil
}
