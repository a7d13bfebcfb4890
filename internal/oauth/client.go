// Package oauth предоставляет клиент для обмена и обновления токенов Google OAuth.
package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultTokenEndpoint — адрес токен-эндпоинта Google по умолчанию.
const DefaultTokenEndpoint = "https://oauth2.googleapis.com"

// Client инкапсулирует HTTP-взаимодействие с токен-эндпоинтом OAuth.
// Сервис выступает только прокси: сами фитнес-данные приходят от клиента.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
}

// TokenResponse описывает ответ токен-эндпоинта.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// NewClient создаёт клиент OAuth с указанными адресом эндпоинта и учётными
// данными приложения.
func NewClient(baseURL, clientID, clientSecret, redirectURI string) *Client {
	if baseURL == "" {
		baseURL = DefaultTokenEndpoint
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// ExchangeCode обменивает код авторизации на пару токенов.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	payload := map[string]string{
		"code":          code,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"redirect_uri":  c.redirectURI,
		"grant_type":    "authorization_code",
	}
	return c.requestToken(ctx, payload)
}

// RefreshToken обновляет токен доступа по refresh-токену.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	payload := map[string]string{
		"refresh_token": refreshToken,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"grant_type":    "refresh_token",
	}
	return c.requestToken(ctx, payload)
}

func (c *Client) requestToken(ctx context.Context, payload map[string]string) (*TokenResponse, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("oauth client not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}
