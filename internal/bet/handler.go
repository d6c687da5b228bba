package bet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tbordasch/befriends/internal/api"
	"github.com/tbordasch/befriends/internal/auth"
	"github.com/tbordasch/befriends/internal/points"

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
	case errors.Is(err, ErrBetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Bet not found"})
	case errors.Is(err, points.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Not enough points"})
	case errors.Is(err, ErrNotCreator):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the bet creator can do this"})
	case errors.Is(err, ErrBetNotOpen):
		c.JSON(http.StatusConflict, gin.H{"error": "Bet is no longer open"})
	case errors.Is(err, ErrBetCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "Bet is already completed"})
	case errors.Is(err, ErrBetPrivate):
		c.JSON(http.StatusForbidden, gin.H{"error": "This bet is private"})
	case errors.Is(err, ErrAlreadyParticipant):
		c.JSON(http.StatusConflict, gin.H{"error": "You are already a participant"})
	case errors.Is(err, ErrRequestAlreadySent):
		c.JSON(http.StatusConflict, gin.H{"error": "Join request already sent"})
	case errors.Is(err, ErrInvalidInviteCode):
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid invite code"})
	case errors.Is(err, ErrNoPendingRequest):
		c.JSON(http.StatusNotFound, gin.H{"error": "No pending request found"})
	case errors.Is(err, ErrStakeLocked):
		c.JSON(http.StatusConflict, gin.H{"error": "Stake cannot change once others have joined"})
	case errors.Is(err, ErrDeadlinePast), errors.Is(err, ErrInviteesMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// CreateBet godoc
// @Summary      Create bet
// @Description  Creates a bet and stakes the creator's points up front.
// @Tags         bets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateBetRequest  true  "Bet data"
// @Success      201      {object}  Bet
// @Failure      400      {object}  gin.H
// @Failure      402      {object}  gin.H
// @Router       /bets [post]
func (h *Handler) CreateBet(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if verrs := api.ValidateStruct(req); len(verrs) > 0 {
		api.RespondWithValidationErrors(c, verrs)
		return
	}

	b, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, b)
}

// UpdateBet godoc
// @Summary      Edit bet
// @Description  Updates an open bet. Creator only.
// @Tags         bets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        betID    path      int               true  "Bet ID"
// @Param        request  body      UpdateBetRequest  true  "Fields to change"
// @Success      200      {object}  Bet
// @Failure      403      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Router       /bets/{betID} [patch]
func (h *Handler) UpdateBet(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	betID, ok := pathID(c, "betID")
	if !ok {
		return
	}

	var req UpdateBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if verrs := api.ValidateStruct(req); len(verrs) > 0 {
		api.RespondWithValidationErrors(c, verrs)
		return
	}

	b, err := h.service.Update(c.Request.Context(), userID, betID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// DeleteBet godoc
// @Summary      Delete bet
// @Description  Refunds every accepted participant, then deletes the bet. Creator only.
// @Tags         bets
// @Security     BearerAuth
// @Produce      json
// @Param        betID  path      int  true  "Bet ID"
// @Success      200    {object}  gin.H
// @Failure      403    {object}  gin.H
// @Failure      409    {object}  gin.H
// @Router       /bets/{betID} [delete]
func (h *Handler) DeleteBet(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	betID, ok := pathID(c, "betID")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, betID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bet deleted and stakes refunded"})
}

// GetBet godoc
// @Summary      Bet details
// @Tags         bets
// @Security     BearerAuth
// @Produce      json
// @Param        betID  path      int  true  "Bet ID"
// @Success      200    {object}  BetWithParticipants
// @Failure      404    {object}  gin.H
// @Router       /bets/{betID} [get]
func (h *Handler) GetBet(c *gin.Context) {
	betID, ok := pathID(c, "betID")
	if !ok {
		return
	}

	b, err := h.service.GetBet(c.Request.Context(), betID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// ListMyBets godoc
// @Summary      List my bets
// @Tags         bets
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Bet
// @Router       /bets/mine [get]
func (h *Handler) ListMyBets(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	bets, err := h.service.ListMyBets(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load bets"})
		return
	}

	c.JSON(http.StatusOK, bets)
}

// BrowseBets godoc
// @Summary      Browse open public bets
// @Tags         bets
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query    int  false  "Page size"
// @Param        offset  query    int  false  "Page offset"
// @Success      200     {array}  Bet
// @Router       /bets [get]
func (h *Handler) BrowseBets(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	bets, err := h.service.BrowseOpenBets(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load bets"})
		return
	}

	c.JSON(http.StatusOK, bets)
}

// JoinViaLink godoc
// @Summary      Join a private bet with an invite code
// @Tags         bets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        betID    path      int                 true  "Bet ID"
// @Param        request  body      JoinViaLinkRequest  true  "Invite code"
// @Success      201      {object}  Participant
// @Failure      402      {object}  gin.H
// @Failure      403      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Router       /bets/{betID}/join [post]
func (h *Handler) JoinViaLink(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	betID, ok := pathID(c, "betID")
	if !ok {
		return
	}

	var req JoinViaLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invite_code is required"})
		return
	}

	p, err := h.service.JoinViaLink(c.Request.Context(), userID, betID, req.InviteCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// RequestToJoin godoc
// @Summary      Request to join a public bet
// @Tags         bets
// @Security     BearerAuth
// @Produce      json
// @Param        betID  path      int  true  "Bet ID"
// @Success      201    {object}  Participant
// @Failure      403    {object}  gin.H
// @Failure      409    {object}  gin.H
// @Router       /bets/{betID}/request [post]
func (h *Handler) RequestToJoin(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	betID, ok := pathID(c, "betID")
	if !ok {
		return
	}

	p, err := h.service.RequestToJoin(c.Request.Context(), userID, betID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// InviteFriends godoc
// @Summary      Invite users to a bet
// @Tags         bets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        betID    path      int                   true  "Bet ID"
// @Param        request  body      InviteFriendsRequest  true  "User IDs to invite"
// @Success      201      {array}   Participant
// @Failure      403      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Router       /bets/{betID}/invite [post]
func (h *Handler) InviteFriends(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	betID, ok := pathID(c, "betID")
	if !ok {
		return
	}

	var req InviteFriendsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.UserIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_ids is required"})
		return
	}

	invited, err := h.service.InviteFriends(c.Request.Context(), userID, betID, req.UserIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invited)
}

// ListJoinRequests godoc
// @Summary      Pending join requests for my bets
// @Tags         bets
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  ParticipantWithBet
// @Router       /requests [get]
func (h *Handler) ListJoinRequests(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	requests, err := h.service.ListJoinRequests(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load join requests"})
		return
	}

	c.JSON(http.StatusOK, requests)
}

// AcceptJoinRequest godoc
// @Summary      Accept a join request
// @Tags         bets
// @Security     BearerAuth
// @Produce      json
// @Param        participantID  path      int  true  "Participant ID"
// @Success      200            {object}  gin.H
// @Failure      402            {object}  gin.H
// @Failure      403            {object}  gin.H
// @Failure      404            {object}  gin.H
// @Router       /requests/{participantID}/accept [post]
func (h *Handler) AcceptJoinRequest(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	participantID, ok := pathID(c, "participantID")
	if !ok {
		return
	}

	if err := h.service.AcceptJoinRequest(c.Request.Context(), userID, participantID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Join request accepted"})
}

// DeclineJoinRequest godoc
// @Summary      Decline a join request
// @Tags         bets
// @Security     BearerAuth
// @Produce      json
// @Param        participantID  path      int  true  "Participant ID"
// @Success      200            {object}  gin.H
// @Failure      403            {object}  gin.H
// @Failure      404            {object}  gin.H
// @Router       /requests/{participantID}/decline [post]
func (h *Handler) DeclineJoinRequest(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	participantID, ok := pathID(c, "participantID")
	if !ok {
		return
	}

	if err := h.service.DeclineJoinRequest(c.Request.Context(), userID, participantID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Join request declined"})
}

// ListMyInvitations godoc
// @Summary      Pending invitations for me
// @Tags         bets
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  ParticipantWithBet
// @Router       /invitations [get]
func (h *Handler) ListMyInvitations(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	invites, err := h.service.ListMyInvitations(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load invitations"})
		return
	}

	c.JSON(http.StatusOK, invites)
}

// AcceptInvitation godoc
// @Summary      Accept an invitation
// @Tags         bets
// @Security     BearerAuth
// @Produce      json
// @Param        participantID  path      int  true  "Participant ID"
// @Success      200            {object}  gin.H
// @Failure      402            {object}  gin.H
// @Failure      404            {object}  gin.H
// @Failure      409            {object}  gin.H
// @Router       /invitations/{participantID}/accept [post]
func (h *Handler) AcceptInvitation(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	participantID, ok := pathID(c, "participantID")
	if !ok {
		return
	}

	if err := h.service.AcceptInvitation(c.Request.Context(), userID, participantID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation accepted"})
}

// DeclineInvitation godoc
// @Summary      Decline an invitation
// @Tags         bets
// @Security     BearerAuth
// @Produce      json
// @Param        participantID  path      int  true  "Participant ID"
// @Success      200            {object}  gin.H
// @Failure      404            {object}  gin.H
// @Router       /invitations/{participantID}/decline [post]
func (h *Handler) DeclineInvitation(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	participantID, ok := pathID(c, "participantID")
	if !ok {
		return
	}

	if err := h.service.DeclineInvitation(c.Request.Context(), userID, participantID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation declined"})
}
