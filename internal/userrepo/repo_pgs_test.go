//go:build integration

package userrepo_test

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/integrationtest"
	"github.com/go-petr/pet-ledger/internal/integrationtest/helpers"
	"github.com/go-petr/pet-ledger/internal/userrepo"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/passpkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/stretchr/testify/require"
)

var (
	dbDriver string
	dbSource string
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	dbDriver = config.DBDriver
	dbSource = config.DBSource

	os.Exit(m.Run())
}

func TestCreate(t *testing.T) {
	t.Parallel()

	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	userRepo := userrepo.NewRepoPGS(tx)

	hashedPassword, err := passpkg.Hash(randompkg.String(10))
	require.NoError(t, err)

	arg := domain.CreateUserParams{
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.Owner(),
		Email:          randompkg.Email(),
	}

	user, err := userRepo.Create(context.Background(), arg)
	require.NoError(t, err)

	require.Equal(t, arg.Username, user.Username)
	require.Equal(t, arg.HashedPassword, user.HashedPassword)
	require.Equal(t, arg.FullName, user.FullName)
	require.Equal(t, arg.Email, user.Email)
	require.NotZero(t, user.CreatedAt)
}

func TestCreateUniqueViolation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		arg     func(existing domain.User) domain.CreateUserParams
		wantErr error
	}{
		{
			name: "users_pkey",
			arg: func(existing domain.User) domain.CreateUserParams {
				return domain.CreateUserParams{
					Username:       existing.Username,
					HashedPassword: existing.HashedPassword,
					FullName:       existing.FullName,
					Email:          randompkg.Email(),
				}
			},
			wantErr: domain.ErrUsernameAlreadyExists,
		},
		{
			name: "users_email_key",
			arg: func(existing domain.User) domain.CreateUserParams {
				return domain.CreateUserParams{
					Username:       randompkg.Owner(),
					HashedPassword: existing.HashedPassword,
					FullName:       existing.FullName,
					Email:          existing.Email,
				}
			},
			wantErr: domain.ErrEmailAlreadyExists,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tx := integrationtest.SetupTX(t, dbDriver, dbSource)
			existing := helpers.SeedUser(t, tx)
			userRepo := userrepo.NewRepoPGS(tx)

			_, err := userRepo.Create(context.Background(), tc.arg(existing))
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("userRepo.Create returned error %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestGetAndExists(t *testing.T) {
	t.Parallel()

	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	want := helpers.SeedUser(t, tx)
	userRepo := userrepo.NewRepoPGS(tx)

	got, err := userRepo.Get(context.Background(), want.Username)
	require.NoError(t, err)
	require.Equal(t, want.Username, got.Username)
	require.Equal(t, want.Email, got.Email)
	require.WithinDuration(t, want.CreatedAt, got.CreatedAt, 0)

	exists, err := userRepo.Exists(context.Background(), want.Username)
	require.NoError(t, err)
	require.True(t, exists)

	missing := randompkg.Owner() + "missing"

	_, err = userRepo.Get(context.Background(), missing)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	exists, err = userRepo.Exists(context.Background(), missing)
	require.NoError(t, err)
	require.False(t, exists)
}
