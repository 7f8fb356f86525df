package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eaglebank/ledger-service/internal/cqrs"
	"github.com/eaglebank/ledger-service/internal/domain"
	"github.com/eaglebank/ledger-service/internal/middleware"
	"github.com/eaglebank/ledger-service/internal/models"
)

// AccountQuerier defines the account read operations used by QueryHandler.
type AccountQuerier interface {
	GetAccountByID(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error)
	GetAllAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.AccountView, error)
}

// AnalyticsQuerier defines the rollup read operation used by QueryHandler.
type AnalyticsQuerier interface {
	GetBankStats(ctx context.Context, q cqrs.GetBankStatsQuery) (*models.BankStatsView, error)
}

// QueryHandler handles the read-side HTTP surface.
type QueryHandler struct {
	accounts  AccountQuerier
	analytics AnalyticsQuerier
}

type ListAccountsResponse struct {
	Accounts []models.AccountView `json:"accounts"`
}

func NewQueryHandler(accounts AccountQuerier, analytics AnalyticsQuerier) *QueryHandler {
	return &QueryHandler{accounts: accounts, analytics: analytics}
}

func (h *QueryHandler) GetAllAccounts(c *gin.Context) {
	views, err := h.accounts.GetAllAccounts(c.Request.Context(), cqrs.ListAccountsQuery{})
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to list accounts")
		return
	}
	if views == nil {
		views = []models.AccountView{}
	}
	c.JSON(http.StatusOK, ListAccountsResponse{Accounts: views})
}

func (h *QueryHandler) GetAccountByID(c *gin.Context) {
	view, err := h.accounts.GetAccountByID(c.Request.Context(), cqrs.GetAccountQuery{ID: c.Param("id")})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to get account")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *QueryHandler) GetBankStats(c *gin.Context) {
	stats, err := h.analytics.GetBankStats(c.Request.Context(), cqrs.GetBankStatsQuery{})
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to get bank stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
