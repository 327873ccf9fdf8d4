package userdelivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.ReleaseMode)
	os.Exit(m.Run())
}

type userEnvelope struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	Data         userData `json:"data"`
	Error        string   `json:"error"`
}

func randomUser() domain.UserWithoutPassword {
	return domain.UserWithoutPassword{
		Username:  randompkg.Owner(),
		FullName:  randompkg.Owner(),
		Email:     randompkg.Email(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func randomSession(username string) domain.Session {
	return domain.Session{
		ID:           uuid.New(),
		Username:     username,
		RefreshToken: randompkg.String(32),
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
}

func serve(t *testing.T, method, path string, body any, setup func(r *http.Request), h *Handler, tokenMaker tokenpkg.Maker) (*httptest.ResponseRecorder, userEnvelope) {
	t.Helper()

	r := gin.New()
	r.POST("/users", h.Create)
	r.POST("/users/login", h.Login)
	r.GET("/profile", middleware.AuthMiddleware(tokenMaker), h.Profile)

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	request := httptest.NewRequest(method, path, &buf)
	if setup != nil {
		setup(request)
	}

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, request)

	var got userEnvelope
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))

	return recorder, got
}

func TestCreate(t *testing.T) {
	user := randomUser()
	session := randomSession(user.Username)
	password := randompkg.String(10)

	validBody := gin.H{
		"username": user.Username,
		"password": password,
		"fullname": user.FullName,
		"email":    user.Email,
	}

	withField := func(key, value string) gin.H {
		body := gin.H{}
		for k, v := range validBody {
			body[k] = v
		}

		body[key] = value

		return body
	}

	testCases := []struct {
		name           string
		body           gin.H
		buildStubs     func(service *MockService, sessionMaker *MockSessionMaker)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "OK",
			body: validBody,
			buildStubs: func(service *MockService, sessionMaker *MockSessionMaker) {
				service.EXPECT().
					Create(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password), gomock.Eq(user.FullName), gomock.Eq(user.Email)).
					Times(1).
					Return(user, nil)
				sessionMaker.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Times(1).
					Return("access", time.Now().Add(time.Minute), session, nil)
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "InvalidUsername",
			body: withField("username", "user&%"),
			buildStubs: func(service *MockService, sessionMaker *MockSessionMaker) {
				service.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "username accepts only alphanumeric characters",
		},
		{
			name: "ShortPassword",
			body: withField("password", "xyz"),
			buildStubs: func(service *MockService, sessionMaker *MockSessionMaker) {
				service.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "password must be at least 6 characters long",
		},
		{
			name: "InvalidEmail",
			body: withField("email", "user%email.com"),
			buildStubs: func(service *MockService, sessionMaker *MockSessionMaker) {
				service.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "email must be a valid email",
		},
		{
			name: "UsernameAlreadyExists",
			body: validBody,
			buildStubs: func(service *MockService, sessionMaker *MockSessionMaker) {
				service.EXPECT().
					Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrUsernameAlreadyExists)
			},
			wantStatusCode: http.StatusConflict,
			wantError:      domain.ErrUsernameAlreadyExists.Error(),
		},
		{
			name: "EmailAlreadyExists",
			body: validBody,
			buildStubs: func(service *MockService, sessionMaker *MockSessionMaker) {
				service.EXPECT().
					Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrEmailAlreadyExists)
			},
			wantStatusCode: http.StatusConflict,
			wantError:      domain.ErrEmailAlreadyExists.Error(),
		},
		{
			name: "SessionInternalError",
			body: validBody,
			buildStubs: func(service *MockService, sessionMaker *MockSessionMaker) {
				service.EXPECT().
					Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(user, nil)
				sessionMaker.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Times(1).
					Return("", time.Time{}, domain.Session{}, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			sessionMaker := NewMockSessionMaker(ctrl)
			tc.buildStubs(service, sessionMaker)

			recorder, got := serve(t, http.MethodPost, "/users", tc.body, nil, NewHandler(service, sessionMaker), nil)

			require.Equal(t, tc.wantStatusCode, recorder.Code)
			require.Equal(t, tc.wantError, got.Error)

			if tc.wantError == "" {
				require.Equal(t, "access", got.AccessToken)
				require.Equal(t, session.RefreshToken, got.RefreshToken)

				if diff := cmp.Diff(user, got.Data.User); diff != "" {
					t.Errorf("res.Data.User mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestLogin(t *testing.T) {
	user := randomUser()
	session := randomSession(user.Username)
	password := randompkg.String(10)

	testCases := []struct {
		name           string
		err            error
		wantStatusCode int
		wantError      string
	}{
		{name: "OK", wantStatusCode: http.StatusOK},
		{name: "UserNotFound", err: domain.ErrUserNotFound, wantStatusCode: http.StatusNotFound, wantError: domain.ErrUserNotFound.Error()},
		{name: "WrongPassword", err: domain.ErrWrongPassword, wantStatusCode: http.StatusUnauthorized, wantError: domain.ErrWrongPassword.Error()},
		{name: "InternalError", err: errorspkg.ErrInternal, wantStatusCode: http.StatusInternalServerError, wantError: errorspkg.ErrInternal.Error()},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			sessionMaker := NewMockSessionMaker(ctrl)

			if tc.err != nil {
				service.EXPECT().
					CheckPassword(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password)).
					Times(1).
					Return(domain.UserWithoutPassword{}, tc.err)
			} else {
				service.EXPECT().
					CheckPassword(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password)).
					Times(1).
					Return(user, nil)
				sessionMaker.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Times(1).
					Return("access", time.Now().Add(time.Minute), session, nil)
			}

			body := gin.H{"username": user.Username, "password": password}
			recorder, got := serve(t, http.MethodPost, "/users/login", body, nil, NewHandler(service, sessionMaker), nil)

			require.Equal(t, tc.wantStatusCode, recorder.Code)
			require.Equal(t, tc.wantError, got.Error)
		})
	}
}

func TestProfile(t *testing.T) {
	user := randomUser()

	tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewMockService(ctrl)
	service.EXPECT().Get(gomock.Any(), gomock.Eq(user.Username)).Times(1).Return(user, nil)

	setupAuth := func(r *http.Request) {
		require.NoError(t, middleware.AddAuthorization(r, tokenMaker, middleware.AuthTypeBearer, user.Username, time.Minute))
	}

	recorder, got := serve(t, http.MethodGet, "/profile", nil, setupAuth, NewHandler(service, nil), tokenMaker)
	require.Equal(t, http.StatusOK, recorder.Code)

	if diff := cmp.Diff(user, got.Data.User); diff != "" {
		t.Errorf("res.Data.User mismatch (-want +got):\n%s", diff)
	}

	recorder, got = serve(t, http.MethodGet, "/profile", nil, nil, NewHandler(service, nil), tokenMaker)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.Equal(t, middleware.ErrAuthHeaderNotFound.Error(), got.Error)
}
