// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/balanceservice"
	"github.com/go-petr/pet-ledger/internal/entryrepo"
	"github.com/go-petr/pet-ledger/internal/eventpublisher"
	"github.com/go-petr/pet-ledger/internal/ledgerdelivery"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/internal/sessiondelivery"
	"github.com/go-petr/pet-ledger/internal/sessionrepo"
	"github.com/go-petr/pet-ledger/internal/sessionservice"
	"github.com/go-petr/pet-ledger/internal/userdelivery"
	"github.com/go-petr/pet-ledger/internal/userrepo"
	"github.com/go-petr/pet-ledger/internal/userservice"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB        *sql.DB
	Engine    *gin.Engine
	Config    configpkg.Config
	Publisher eventpublisher.Publisher
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// Close releases the event publisher.
func (s *Server) Close() error {
	return s.Publisher.Close()
}

var (
	registerOnce sync.Once
	registerErr  error
)

func registerValidators() error {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			registerErr = v.RegisterValidation("amount", ledgerdelivery.ValidAmount)
		}
	})

	return registerErr
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	userRepo := userrepo.NewRepoPGS(conn)
	entryRepo := entryrepo.NewRepoPGS(conn)
	sessionRepo := sessionrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewMaker(config.TokenType, config.TokenSymmetricKey)
	if err != nil {
		return nil, fmt.Errorf("cannot create token maker: %w", err)
	}

	publisher := eventpublisher.New(config)

	userService := userservice.New(userRepo)
	balanceService := balanceservice.New(entryRepo, userService)
	ledgerService := ledgerservice.New(entryRepo, userService, balanceService, publisher)

	sessionService, err := sessionservice.New(sessionRepo, config, tokenMaker)
	if err != nil {
		return nil, errors.New("cannot initialize session service")
	}

	userHandler := userdelivery.NewHandler(userService, sessionService)
	sessionHandler := sessiondelivery.NewHandler(sessionService)
	ledgerHandler := ledgerdelivery.NewHandler(ledgerService)

	if err := registerValidators(); err != nil {
		return nil, errors.New("cannot register amount validator")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	api := engine.Group("/api/v1")

	api.POST("/users", userHandler.Create)
	api.POST("/users/login", userHandler.Login)
	api.POST("/sessions", sessionHandler.RenewAccessToken)

	authRoutes := api.Group("/", middleware.AuthMiddleware(sessionService.TokenMaker))

	authRoutes.GET("/profile", userHandler.Profile)

	statements := authRoutes.Group("/statements")
	statements.POST("/deposit", ledgerHandler.Deposit)
	statements.POST("/withdraw", ledgerHandler.Withdraw)
	statements.POST("/transfers/:username", ledgerHandler.Transfer)
	statements.GET("/balance", ledgerHandler.Balance)
	statements.GET("/:statement_id", ledgerHandler.GetEntry)

	server := &Server{
		DB:        conn,
		Engine:    engine,
		Config:    config,
		Publisher: publisher,
	}

	return server, nil
}
