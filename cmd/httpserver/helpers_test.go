//go:build integration

package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
)

func newTokenMaker(t *testing.T, server *httpserver.Server) tokenpkg.Maker {
	t.Helper()

	tokenMaker, err := tokenpkg.NewMaker(server.Config.TokenType, server.Config.TokenSymmetricKey)
	if err != nil {
		t.Fatalf("tokenpkg.NewMaker(%v, key) returned error: %v", server.Config.TokenType, err)
	}

	return tokenMaker
}

// do sends the request to the server and decodes the response body into res.
// An empty username sends the request without authorization.
func do(t *testing.T, server *httpserver.Server, tokenMaker tokenpkg.Maker,
	method, url, username string, body, res any,
) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Encoding request body error: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("Creating request error: %v", err)
	}

	if username != "" {
		err = middleware.AddAuthorization(req, tokenMaker, middleware.AuthTypeBearer,
			username, server.Config.AccessTokenDuration)
		if err != nil {
			t.Fatalf("middleware.AddAuthorization returned error: %v", err)
		}
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if res != nil {
		if err := json.NewDecoder(w.Body).Decode(res); err != nil {
			t.Fatalf("Decoding response body error: %v", err)
		}
	}

	return w.Code
}
