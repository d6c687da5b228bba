package vote

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tbordasch/befriends/internal/auth"
	"github.com/tbordasch/befriends/internal/bet"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, bet.ErrBetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Bet not found"})
	case errors.Is(err, bet.ErrBetCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "Bet is already completed"})
	case errors.Is(err, bet.ErrNotAParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only accepted participants can vote or be voted for"})
	case errors.Is(err, ErrNoVoteToConfirm):
		c.JSON(http.StatusNotFound, gin.H{"error": "No vote to confirm"})
	case errors.Is(err, ErrAlreadyConfirmed):
		c.JSON(http.StatusConflict, gin.H{"error": "Vote is already confirmed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

func betIDParam(c *gin.Context) (int, bool) {
	betID, err := strconv.Atoi(c.Param("betID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bet ID"})
		return 0, false
	}
	return betID, true
}

// CastVote godoc
// @Summary      Cast or change a vote
// @Description  Votes for the participant who won. Replaces any earlier unconfirmed vote by the same voter.
// @Tags         votes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        betID    path      int              true  "Bet ID"
// @Param        request  body      CastVoteRequest  true  "Vote target"
// @Success      200      {object}  gin.H
// @Failure      403      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Router       /bets/{betID}/vote [post]
func (h *Handler) CastVote(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	betID, ok := betIDParam(c)
	if !ok {
		return
	}

	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "voted_for_user_id is required"})
		return
	}

	if err := h.service.Cast(c.Request.Context(), betID, userID, req.VotedForUserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vote recorded"})
}

// RevokeVote godoc
// @Summary      Revoke an unconfirmed vote
// @Tags         votes
// @Security     BearerAuth
// @Produce      json
// @Param        betID  path      int  true  "Bet ID"
// @Success      200    {object}  gin.H
// @Failure      409    {object}  gin.H
// @Router       /bets/{betID}/vote [delete]
func (h *Handler) RevokeVote(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	betID, ok := betIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Revoke(c.Request.Context(), betID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vote revoked"})
}

// ConfirmVote godoc
// @Summary      Confirm a vote
// @Description  Confirmation is one way. When every participant has voted and confirmed, the bet settles.
// @Tags         votes
// @Security     BearerAuth
// @Produce      json
// @Param        betID  path      int  true  "Bet ID"
// @Success      200    {object}  gin.H
// @Failure      404    {object}  gin.H
// @Failure      409    {object}  gin.H
// @Router       /bets/{betID}/vote/confirm [post]
func (h *Handler) ConfirmVote(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	betID, ok := betIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Confirm(c.Request.Context(), betID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vote confirmed"})
}

// GetVoteStatus godoc
// @Summary      Voting status for a bet
// @Tags         votes
// @Security     BearerAuth
// @Produce      json
// @Param        betID  path      int  true  "Bet ID"
// @Success      200    {object}  Status
// @Failure      404    {object}  gin.H
// @Router       /bets/{betID}/votes [get]
func (h *Handler) GetVoteStatus(c *gin.Context) {
	betID, ok := betIDParam(c)
	if !ok {
		return
	}

	status, err := h.service.GetStatus(c.Request.Context(), betID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
