package proof

import (
	"net/http"
	"strconv"

	"github.com/tbordasch/befriends/internal/auth"
	"github.com/tbordasch/befriends/internal/bet"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo    Repository
	betRepo bet.Repository
}

func NewHandler(repo Repository, betRepo bet.Repository) *Handler {
	return &Handler{repo: repo, betRepo: betRepo}
}

// SubmitProof godoc
// @Summary      Attach proof to a bet
// @Description  Stores a link to evidence for the outcome. One proof per participant, resubmitting replaces it.
// @Tags         proofs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        betID    path      int                 true  "Bet ID"
// @Param        request  body      SubmitProofRequest  true  "Proof data"
// @Success      201      {object}  Proof
// @Failure      403      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Router       /bets/{betID}/proofs [post]
func (h *Handler) SubmitProof(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	betID, err := strconv.Atoi(c.Param("betID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bet ID"})
		return
	}

	var req SubmitProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_url is required"})
		return
	}

	accepted, err := h.betRepo.IsAcceptedParticipant(c.Request.Context(), betID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check participation"})
		return
	}
	if !accepted {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only accepted participants can submit proofs"})
		return
	}

	p, err := h.repo.Upsert(c.Request.Context(), betID, userID, req.ImageURL, req.Caption)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save proof"})
		return
	}

	c.JSON(http.StatusCreated, p)
}

// ListProofs godoc
// @Summary      List proofs for a bet
// @Tags         proofs
// @Security     BearerAuth
// @Produce      json
// @Param        betID  path     int  true  "Bet ID"
// @Success      200    {array}  Proof
// @Failure      404    {object} gin.H
// @Router       /bets/{betID}/proofs [get]
func (h *Handler) ListProofs(c *gin.Context) {
	betID, err := strconv.Atoi(c.Param("betID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bet ID"})
		return
	}

	if _, err := h.betRepo.GetBetByID(c.Request.Context(), betID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bet not found"})
		return
	}

	proofs, err := h.repo.ListForBet(c.Request.Context(), betID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load proofs"})
		return
	}

	c.JSON(http.StatusOK, proofs)
}
