//go:build integration

package httpserver_test

import (
	"net/http"
	"testing"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/integrationtest"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
)

type userResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Data         struct {
		User domain.UserWithoutPassword `json:"user"`
	} `json:"data"`
	Error string `json:"error"`
}

func TestUserAPI(t *testing.T) {
	server := integrationtest.SetupServer(t)
	tokenMaker := newTokenMaker(t, server)

	username := randompkg.Owner()
	password := randompkg.String(10)
	email := randompkg.Email()

	createBody := map[string]string{
		"username": username,
		"password": password,
		"fullname": randompkg.Owner(),
		"email":    email,
	}

	var created userResponse
	if code := do(t, server, tokenMaker, http.MethodPost, "/api/v1/users", "", createBody, &created); code != http.StatusCreated {
		t.Fatalf("create user status = %v, want %v (error %q)", code, http.StatusCreated, created.Error)
	}

	if created.Data.User.Username != username || created.AccessToken == "" || created.RefreshToken == "" {
		t.Errorf("create user response = %+v, want user %v with tokens", created, username)
	}

	var dup userResponse
	if code := do(t, server, tokenMaker, http.MethodPost, "/api/v1/users", "", createBody, &dup); code != http.StatusConflict {
		t.Errorf("duplicate user status = %v, want %v", code, http.StatusConflict)
	}

	var login userResponse
	loginBody := map[string]string{"username": username, "password": password}

	if code := do(t, server, tokenMaker, http.MethodPost, "/api/v1/users/login", "", loginBody, &login); code != http.StatusOK {
		t.Fatalf("login status = %v, want %v (error %q)", code, http.StatusOK, login.Error)
	}

	loginBody["password"] = "wrong-password"

	var wrong userResponse
	if code := do(t, server, tokenMaker, http.MethodPost, "/api/v1/users/login", "", loginBody, &wrong); code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %v, want %v", code, http.StatusUnauthorized)
	}

	var profile userResponse
	if code := do(t, server, tokenMaker, http.MethodGet, "/api/v1/profile", username, nil, &profile); code != http.StatusOK {
		t.Fatalf("profile status = %v, want %v", code, http.StatusOK)
	}

	if profile.Data.User.Email != email {
		t.Errorf("profile email = %v, want %v", profile.Data.User.Email, email)
	}
}
