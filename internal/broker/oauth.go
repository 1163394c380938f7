package broker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"premiumtrader/pkg/retry"
)

// ============================================================
// OAuth2
// ============================================================

// AuthorizeURL строит URL авторизации для редиректа пользователя
func (c *Client) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.cfg.ClientID)
	params.Set("redirect_uri", c.cfg.RedirectURI)
	params.Set("response_type", "code")
	if state != "" {
		params.Set("state", state)
	}
	return c.cfg.AuthURL + "?" + params.Encode()
}

// ExchangeCode обменивает authorization code на пару токенов
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.AppSecret)

	return c.postToken(ctx, form)
}

// RefreshToken обновляет access token по refresh token'у
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.AppSecret)

	return c.postToken(ctx, form)
}

// postToken отправляет form-encoded запрос на token endpoint
func (c *Client) postToken(ctx context.Context, form url.Values) (*TokenResponse, error) {
	return retry.DoWithResult(ctx, func() (*TokenResponse, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := &APIError{
				StatusCode: resp.StatusCode,
				Body:       strings.TrimSpace(string(body)),
			}
			if !apiErr.Retryable() {
				return nil, retry.Permanent(apiErr)
			}
			return nil, apiErr
		}

		token := &TokenResponse{}
		if err := json.Unmarshal(body, token); err != nil {
			return nil, retry.Permanent(fmt.Errorf("failed to decode token response: %w", err))
		}
		if token.AccessToken == "" {
			return nil, retry.Permanent(fmt.Errorf("token response without access_token"))
		}

		return token, nil
	}, c.retryCfg)
}
