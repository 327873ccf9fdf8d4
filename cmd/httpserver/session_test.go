//go:build integration

package httpserver_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/integrationtest"
	"github.com/go-petr/pet-ledger/internal/integrationtest/helpers"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

func TestRenewAccessTokenAPI(t *testing.T) {
	server := integrationtest.SetupServer(t)
	tokenMaker := newTokenMaker(t, server)
	duration := server.Config.RefreshTokenDuration

	type requestBody struct {
		RefreshToken string `json:"refresh_token"`
	}

	// seed creates a refresh token for a new user and stores a session built by modify.
	seed := func(t *testing.T, modify func(arg *domain.CreateSessionParams)) string {
		user := helpers.SeedUser(t, server.DB)

		refreshToken, payload, err := tokenMaker.CreateToken(user.Username, duration)
		if err != nil {
			t.Fatalf("tokenMaker.CreateToken(%v, %v) returned error: %v", user.Username, duration, err)
		}

		if modify == nil {
			return refreshToken
		}

		arg := domain.CreateSessionParams{
			ID:           payload.ID,
			Username:     user.Username,
			RefreshToken: refreshToken,
			UserAgent:    "Mozilla/5.0",
			ClientIP:     "123.123.123.123",
			ExpiresAt:    payload.ExpiredAt,
		}
		modify(&arg)
		helpers.SeedSession(t, server.DB, arg)

		return refreshToken
	}

	testCases := []struct {
		name           string
		refreshToken   func(t *testing.T) string
		wantStatusCode int
		wantError      string
	}{
		{
			name: "OK",
			refreshToken: func(t *testing.T) string {
				return seed(t, func(arg *domain.CreateSessionParams) {})
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "ExpiredToken",
			refreshToken: func(t *testing.T) string {
				user := helpers.SeedUser(t, server.DB)
				token, _, err := tokenMaker.CreateToken(user.Username, -time.Minute)
				if err != nil {
					t.Fatalf("tokenMaker.CreateToken returned error: %v", err)
				}
				return token
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      tokenpkg.ErrExpiredToken.Error(),
		},
		{
			name: "SessionNotFound",
			refreshToken: func(t *testing.T) string {
				return seed(t, nil)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrSessionNotFound.Error(),
		},
		{
			name: "BlockedSession",
			refreshToken: func(t *testing.T) string {
				return seed(t, func(arg *domain.CreateSessionParams) { arg.IsBlocked = true })
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      domain.ErrBlockedSession.Error(),
		},
		{
			name: "InvalidUser",
			refreshToken: func(t *testing.T) string {
				other := helpers.SeedUser(t, server.DB)
				return seed(t, func(arg *domain.CreateSessionParams) { arg.Username = other.Username })
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      domain.ErrInvalidUser.Error(),
		},
		{
			name: "MismatchedRefreshToken",
			refreshToken: func(t *testing.T) string {
				return seed(t, func(arg *domain.CreateSessionParams) { arg.RefreshToken = "another" })
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      domain.ErrMismatchedRefreshToken.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			var res web.Response

			code := do(t, server, tokenMaker, http.MethodPost, "/api/v1/sessions", "",
				requestBody{RefreshToken: tc.refreshToken(t)}, &res)

			if code != tc.wantStatusCode {
				t.Fatalf("Status code: got %v, want %v", code, tc.wantStatusCode)
			}

			if res.Error != tc.wantError {
				t.Errorf("res.Error = %q, want %q", res.Error, tc.wantError)
			}

			if tc.wantError == "" {
				if _, err := tokenMaker.VerifyToken(res.AccessToken); err != nil {
					t.Errorf("tokenMaker.VerifyToken(res.AccessToken) returned error: %v", err)
				}
			}
		})
	}
}
