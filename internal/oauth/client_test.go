package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExchangeCode_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/token" {
			t.Fatalf("path = %s, want /token", r.URL.Path)
		}

		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["grant_type"] != "authorization_code" {
			t.Fatalf("grant_type = %q, want authorization_code", payload["grant_type"])
		}
		if payload["code"] != "auth-code" {
			t.Fatalf("code = %q, want auth-code", payload["code"])
		}
		if payload["client_id"] != "client" || payload["client_secret"] != "secret" {
			t.Fatalf("unexpected credentials: %v", payload)
		}

		resp := TokenResponse{
			AccessToken:  "access",
			RefreshToken: "refresh",
			ExpiresIn:    3600,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "client", "secret", "http://localhost:5175")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := client.ExchangeCode(ctx, "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode error: %v", err)
	}
	if res.AccessToken != "access" || res.RefreshToken != "refresh" {
		t.Fatalf("unexpected response: %+v", res)
	}
	if res.ExpiresIn != 3600 {
		t.Fatalf("expiresIn = %d, want 3600", res.ExpiresIn)
	}
}

func TestRefreshToken_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["grant_type"] != "refresh_token" {
			t.Fatalf("grant_type = %q, want refresh_token", payload["grant_type"])
		}
		if payload["refresh_token"] != "refresh" {
			t.Fatalf("refresh_token = %q, want refresh", payload["refresh_token"])
		}
		if _, ok := payload["redirect_uri"]; ok {
			t.Fatalf("redirect_uri must not be sent on refresh")
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(TokenResponse{AccessToken: "fresh"}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "client", "secret", "")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := client.RefreshToken(ctx, "refresh")
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	if res.AccessToken != "fresh" {
		t.Fatalf("accessToken = %q, want fresh", res.AccessToken)
	}
}

func TestRequestToken_UnexpectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "client", "secret", "")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := client.ExchangeCode(ctx, "bad-code"); err == nil {
		t.Fatalf("expected error for non-200 status")
	}
}

func TestNewClient_DefaultEndpoint(t *testing.T) {
	client := NewClient("", "client", "secret", "")
	if client.baseURL != DefaultTokenEndpoint {
		t.Fatalf("baseURL = %q, want %q", client.baseURL, DefaultTokenEndpoint)
	}
}
