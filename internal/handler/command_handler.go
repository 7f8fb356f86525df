package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/eaglebank/ledger-service/internal/cqrs"
	"github.com/eaglebank/ledger-service/internal/domain"
	"github.com/eaglebank/ledger-service/internal/eventstore"
	"github.com/eaglebank/ledger-service/internal/middleware"
)

// AccountCommander defines the write-side operations used by CommandHandler.
type AccountCommander interface {
	CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (string, error)
	CreditAccount(ctx context.Context, cmd cqrs.CreditAccountCommand) (string, error)
	DebitAccount(ctx context.Context, cmd cqrs.DebitAccountCommand) (string, error)
}

// CommandHandler handles the account command HTTP surface.
type CommandHandler struct {
	commands AccountCommander
}

func NewCommandHandler(commands AccountCommander) *CommandHandler {
	return &CommandHandler{commands: commands}
}

// Amount bounds are validated in the aggregate, not here: the handler only
// checks shape, so rejections carry the same error taxonomy on every path.
type CreateAccountRequest struct {
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Currency       string          `json:"currency" validate:"required,len=3,uppercase"`
}

type CreditAccountRequest struct {
	ID       string          `json:"id" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"required,len=3,uppercase"`
}

type DebitAccountRequest struct {
	ID       string          `json:"id" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"required,len=3,uppercase"`
}

func (h *CommandHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	id, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{
		InitialBalance: req.InitialBalance,
		Currency:       req.Currency,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *CommandHandler) CreditAccount(c *gin.Context) {
	var req CreditAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	id, err := h.commands.CreditAccount(c.Request.Context(), cqrs.CreditAccountCommand{
		ID:       req.ID,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *CommandHandler) DebitAccount(c *gin.Context) {
	var req DebitAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	id, err := h.commands.DebitAccount(c.Request.Context(), cqrs.DebitAccountCommand{
		ID:       req.ID,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// respondCommandError maps the command error taxonomy onto HTTP statuses.
func respondCommandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		middleware.RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrCurrencyMismatch):
		middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, eventstore.ErrConcurrencyConflict):
		// Retries are exhausted by the command service before this surfaces.
		middleware.RespondWithError(c, http.StatusConflict, "Account is being modified concurrently, retry the command")
	default:
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to process command")
	}
}
