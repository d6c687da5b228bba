package points

import (
	"net/http"
	"strconv"

	"github.com/tbordasch/befriends/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// GetSummary godoc
// @Summary      Points summary
// @Description  Returns current balance, points locked in open bets and the total potential win.
// @Tags         points
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Summary
// @Failure      401  {object}  gin.H
// @Failure      500  {object}  gin.H
// @Router       /points [get]
func (h *Handler) GetSummary(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx := c.Request.Context()

	balance, err := h.repo.Balance(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load balance"})
		return
	}

	locked, err := h.repo.LockedPoints(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load locked points"})
		return
	}

	potential, err := h.repo.PotentialWin(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load potential win"})
		return
	}

	c.JSON(http.StatusOK, Summary{
		Balance:      balance,
		LockedPoints: locked,
		PotentialWin: potential,
	})
}

// ListTransactions godoc
// @Summary      Points transaction history
// @Description  Returns the ledger entries of the authenticated user, newest first.
// @Tags         points
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Page offset"
// @Success      200  {array}   Transaction
// @Failure      401  {object}  gin.H
// @Failure      500  {object}  gin.H
// @Router       /points/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.repo.GetTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}
