package models

import "time"

// OAuthToken - токены брокерского API одного пользователя
//
// Значения access/refresh хранятся в БД зашифрованными (AES-256-GCM),
// в структуре они уже расшифрованы.
type OAuthToken struct {
	UserID       string    `json:"user_id" db:"user_id"`
	AccessToken  string    `json:"-" db:"access_token"`
	RefreshToken string    `json:"-" db:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
	TokenType    string    `json:"token_type" db:"token_type"` // обычно Bearer
	Scope        string    `json:"scope" db:"scope"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsExpired сообщает истёк ли access token с учётом запаса
func (t *OAuthToken) IsExpired(margin time.Duration) bool {
	return time.Now().Add(margin).After(t.ExpiresAt)
}
