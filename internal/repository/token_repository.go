package repository

import (
	"database/sql"
	"errors"
	"time"

	"premiumtrader/internal/models"
)

// ErrTokenNotFound возвращается когда токены пользователя не сохранены
var ErrTokenNotFound = errors.New("oauth token not found")

// TokenRepository - работа с таблицей oauth_tokens
//
// В колонках access_token/refresh_token лежат зашифрованные значения,
// шифрованием занимается сервисный слой.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository создает новый экземпляр репозитория
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Upsert сохраняет токены пользователя, перезаписывая существующие
//
// user_id - первичный ключ: у пользователя одна действующая пара токенов.
func (r *TokenRepository) Upsert(token *models.OAuthToken) error {
	query := `
		INSERT INTO oauth_tokens (user_id, access_token, refresh_token, expires_at, token_type, scope, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    expires_at = EXCLUDED.expires_at,
		    token_type = EXCLUDED.token_type,
		    scope = EXCLUDED.scope,
		    is_active = EXCLUDED.is_active,
		    updated_at = EXCLUDED.updated_at`

	now := time.Now()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now
	}
	token.UpdatedAt = now

	_, err := r.db.Exec(
		query,
		token.UserID,
		token.AccessToken,
		token.RefreshToken,
		token.ExpiresAt,
		token.TokenType,
		token.Scope,
		token.IsActive,
		token.CreatedAt,
		token.UpdatedAt,
	)

	return err
}

// Get возвращает действующие токены пользователя
func (r *TokenRepository) Get(userID string) (*models.OAuthToken, error) {
	query := `
		SELECT user_id, access_token, refresh_token, expires_at, token_type, scope, is_active, created_at, updated_at
		FROM oauth_tokens
		WHERE user_id = $1 AND is_active = TRUE`

	token := &models.OAuthToken{}
	err := r.db.QueryRow(query, userID).Scan(
		&token.UserID,
		&token.AccessToken,
		&token.RefreshToken,
		&token.ExpiresAt,
		&token.TokenType,
		&token.Scope,
		&token.IsActive,
		&token.CreatedAt,
		&token.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	return token, nil
}

// Deactivate отзывает токены пользователя
func (r *TokenRepository) Deactivate(userID string) error {
	result, err := r.db.Exec(
		`UPDATE oauth_tokens SET is_active = FALSE, updated_at = $1 WHERE user_id = $2`,
		time.Now(), userID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTokenNotFound
	}

	return nil
}
