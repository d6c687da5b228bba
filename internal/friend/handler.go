package friend

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tbordasch/befriends/internal/auth"
	"github.com/tbordasch/befriends/internal/user"

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
	case errors.Is(err, user.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, ErrSelfFriend):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrAlreadyFriends):
		c.JSON(http.StatusConflict, gin.H{"error": "You are already friends"})
	case errors.Is(err, ErrRequestAlreadySent):
		c.JSON(http.StatusConflict, gin.H{"error": "Friend request already sent"})
	case errors.Is(err, ErrRequestIncoming):
		c.JSON(http.StatusConflict, gin.H{"error": "This user already sent you a friend request"})
	case errors.Is(err, ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Friend request not found"})
	case errors.Is(err, ErrNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": "Friend request was already answered"})
	case errors.Is(err, ErrNotAddressee):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the addressee can answer a friend request"})
	case errors.Is(err, ErrNotFriends):
		c.JSON(http.StatusNotFound, gin.H{"error": "You are not friends with this user"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

// SendRequest godoc
// @Summary      Send a friend request
// @Tags         friends
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      SendRequestBody  true  "Target user"
// @Success      201      {object}  Friendship
// @Failure      404      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Router       /friends/requests [post]
func (h *Handler) SendRequest(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req SendRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	f, err := h.service.SendRequest(c.Request.Context(), userID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, f)
}

// ListIncoming godoc
// @Summary      Pending friend requests sent to me
// @Tags         friends
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  RequestWithUser
// @Router       /friends/requests [get]
func (h *Handler) ListIncoming(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	requests, err := h.service.ListIncoming(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load friend requests"})
		return
	}

	c.JSON(http.StatusOK, requests)
}

// AcceptRequest godoc
// @Summary      Accept a friend request
// @Tags         friends
// @Security     BearerAuth
// @Produce      json
// @Param        requestID  path      int  true  "Request ID"
// @Success      200        {object}  gin.H
// @Failure      403        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Router       /friends/requests/{requestID}/accept [post]
func (h *Handler) AcceptRequest(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	requestID, err := strconv.Atoi(c.Param("requestID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	if err := h.service.Accept(c.Request.Context(), userID, requestID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend request accepted"})
}

// DeclineRequest godoc
// @Summary      Decline a friend request
// @Tags         friends
// @Security     BearerAuth
// @Produce      json
// @Param        requestID  path      int  true  "Request ID"
// @Success      200        {object}  gin.H
// @Failure      403        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Router       /friends/requests/{requestID}/decline [post]
func (h *Handler) DeclineRequest(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	requestID, err := strconv.Atoi(c.Param("requestID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	if err := h.service.Decline(c.Request.Context(), userID, requestID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend request declined"})
}

// ListFriends godoc
// @Summary      My friends
// @Tags         friends
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Friend
// @Router       /friends [get]
func (h *Handler) ListFriends(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	friends, err := h.service.ListFriends(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load friends"})
		return
	}

	c.JSON(http.StatusOK, friends)
}

// RemoveFriend godoc
// @Summary      Remove a friend
// @Tags         friends
// @Security     BearerAuth
// @Produce      json
// @Param        userID  path      int  true  "Friend's user ID"
// @Success      200     {object}  gin.H
// @Failure      404     {object}  gin.H
// @Router       /friends/{userID} [delete]
func (h *Handler) RemoveFriend(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	otherID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := h.service.Remove(c.Request.Context(), userID, otherID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend removed"})
}
