// Package ledgerdelivery manages delivery layer of account statements.
package ledgerdelivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/web"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	Deposit(ctx context.Context, owner, amount, description string) (domain.Entry, error)
	Withdraw(ctx context.Context, owner, amount, description string) (domain.Entry, error)
	Transfer(ctx context.Context, sender, recipient, amount, description string) (domain.Entry, error)
	GetBalance(ctx context.Context, owner string) (domain.Balance, error)
	GetEntry(ctx context.Context, owner string, id uuid.UUID) (domain.Entry, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns ledger handler.
func NewHandler(ls Service) *Handler {
	return &Handler{service: ls}
}

type entryResponse struct {
	ID          uuid.UUID        `json:"id"`
	Owner       string           `json:"owner"`
	Type        domain.EntryKind `json:"type"`
	Amount      string           `json:"amount"`
	Description string           `json:"description"`
	Recipient   string           `json:"recipient,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func newEntryResponse(e domain.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		Owner:       e.Owner,
		Type:        e.Kind,
		Amount:      e.Amount.StringFixed(MaxAmountScale),
		Description: e.Description,
		Recipient:   e.Recipient,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

type entryData struct {
	Statement entryResponse `json:"statement"`
}

type balanceData struct {
	Statement []entryResponse `json:"statement"`
	Balance   string          `json:"balance"`
}

type amountRequest struct {
	Amount      json.Number `json:"amount" binding:"required,amount"`
	Description string      `json:"description" binding:"max=255"`
}

type transferURI struct {
	Username string `uri:"username" binding:"required,alphanum"`
}

type entryURI struct {
	ID string `uri:"statement_id" binding:"required,uuid"`
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrSenderNotFound),
		errors.Is(err, domain.ErrRecipientNotFound),
		errors.Is(err, domain.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrNegativeAmount):
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

func respondError(gctx *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		err = errorspkg.ErrInternal
	}

	gctx.JSON(status, web.Error(err))
}

func bindAmount(gctx *gin.Context) (amountRequest, bool) {
	var req amountRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindError(err))

		return req, false
	}

	return req, true
}

// Deposit handles http request to deposit money into the caller's account.
func (h *Handler) Deposit(gctx *gin.Context) {
	req, ok := bindAmount(gctx)
	if !ok {
		return
	}

	entry, err := h.service.Deposit(gctx.Request.Context(),
		middleware.AuthUsername(gctx), req.Amount.String(), req.Description)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: entryData{newEntryResponse(entry)}})
}

// Withdraw handles http request to withdraw money from the caller's account.
func (h *Handler) Withdraw(gctx *gin.Context) {
	req, ok := bindAmount(gctx)
	if !ok {
		return
	}

	entry, err := h.service.Withdraw(gctx.Request.Context(),
		middleware.AuthUsername(gctx), req.Amount.String(), req.Description)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: entryData{newEntryResponse(entry)}})
}

// Transfer handles http request to move money from the caller to another user.
func (h *Handler) Transfer(gctx *gin.Context) {
	var uri transferURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindError(err))

		return
	}

	req, ok := bindAmount(gctx)
	if !ok {
		return
	}

	entry, err := h.service.Transfer(gctx.Request.Context(),
		middleware.AuthUsername(gctx), uri.Username, req.Amount.String(), req.Description)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: entryData{newEntryResponse(entry)}})
}

// Balance handles http request to get the caller's statement and balance.
func (h *Handler) Balance(gctx *gin.Context) {
	balance, err := h.service.GetBalance(gctx.Request.Context(), middleware.AuthUsername(gctx))
	if err != nil {
		respondError(gctx, err)
		return
	}

	data := balanceData{
		Statement: make([]entryResponse, 0, len(balance.Entries)),
		Balance:   balance.Balance.StringFixed(MaxAmountScale),
	}
	for _, e := range balance.Entries {
		data.Statement = append(data.Statement, newEntryResponse(e))
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data})
}

// GetEntry handles http request to get one of the caller's statement entries.
func (h *Handler) GetEntry(gctx *gin.Context) {
	var uri entryURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindError(err))

		return
	}

	entry, err := h.service.GetEntry(gctx.Request.Context(),
		middleware.AuthUsername(gctx), uuid.MustParse(uri.ID))
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: entryData{newEntryResponse(entry)}})
}
