package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/tbordasch/befriends/internal/activity"
	"github.com/tbordasch/befriends/internal/auth"
	"github.com/tbordasch/befriends/internal/bet"
	"github.com/tbordasch/befriends/internal/config"
	"github.com/tbordasch/befriends/internal/friend"
	"github.com/tbordasch/befriends/internal/notify"
	"github.com/tbordasch/befriends/internal/points"
	"github.com/tbordasch/befriends/internal/proof"
	"github.com/tbordasch/befriends/internal/user"
	"github.com/tbordasch/befriends/internal/vote"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
}

func New(db *sqlx.DB, cfg *config.Config, notifier *notify.Service) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(20, 40))

	pointsRepo := points.NewRepository(db)
	userRepo := user.NewRepository(db)
	betRepo := bet.NewRepository(db)
	voteRepo := vote.NewRepository(db)
	activityRepo := activity.NewRepository(db)
	proofRepo := proof.NewRepository(db)
	friendRepo := friend.NewRepository(db)

	userService := user.NewService(userRepo, pointsRepo, cfg.JWTSecret, cfg.SignupBonusPoints)
	betService := bet.NewService(betRepo, pointsRepo, activityRepo, userRepo, notifier)
	voteService := vote.NewService(voteRepo, betRepo, pointsRepo, activityRepo, userRepo, notifier)
	friendService := friend.NewService(friendRepo, activityRepo, userRepo, notifier)

	userHandler := user.NewHandler(userService)
	pointsHandler := points.NewHandler(pointsRepo)
	betHandler := bet.NewHandler(betService)
	voteHandler := vote.NewHandler(voteService)
	activityHandler := activity.NewHandler(activityRepo)
	proofHandler := proof.NewHandler(proofRepo, betRepo)
	friendHandler := friend.NewHandler(friendService)

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/users/search", userHandler.SearchUsers)

		protected.GET("/points", pointsHandler.GetSummary)
		protected.GET("/points/transactions", pointsHandler.ListTransactions)

		protected.POST("/bets", betHandler.CreateBet)
		protected.GET("/bets", betHandler.BrowseBets)
		protected.GET("/bets/mine", betHandler.ListMyBets)
		protected.GET("/bets/:betID", betHandler.GetBet)
		protected.PATCH("/bets/:betID", betHandler.UpdateBet)
		protected.DELETE("/bets/:betID", betHandler.DeleteBet)
		protected.POST("/bets/:betID/join", betHandler.JoinViaLink)
		protected.POST("/bets/:betID/request", betHandler.RequestToJoin)
		protected.POST("/bets/:betID/invite", betHandler.InviteFriends)

		protected.GET("/requests", betHandler.ListJoinRequests)
		protected.POST("/requests/:participantID/accept", betHandler.AcceptJoinRequest)
		protected.POST("/requests/:participantID/decline", betHandler.DeclineJoinRequest)

		protected.GET("/invitations", betHandler.ListMyInvitations)
		protected.POST("/invitations/:participantID/accept", betHandler.AcceptInvitation)
		protected.POST("/invitations/:participantID/decline", betHandler.DeclineInvitation)

		protected.POST("/bets/:betID/vote", voteHandler.CastVote)
		protected.DELETE("/bets/:betID/vote", voteHandler.RevokeVote)
		protected.POST("/bets/:betID/vote/confirm", voteHandler.ConfirmVote)
		protected.GET("/bets/:betID/votes", voteHandler.GetVoteStatus)

		protected.POST("/bets/:betID/proofs", proofHandler.SubmitProof)
		protected.GET("/bets/:betID/proofs", proofHandler.ListProofs)

		protected.GET("/friends", friendHandler.ListFriends)
		protected.DELETE("/friends/:userID", friendHandler.RemoveFriend)
		protected.POST("/friends/requests", friendHandler.SendRequest)
		protected.GET("/friends/requests", friendHandler.ListIncoming)
		protected.POST("/friends/requests/:requestID/accept", friendHandler.AcceptRequest)
		protected.POST("/friends/requests/:requestID/decline", friendHandler.DeclineRequest)

		protected.GET("/activity", activityHandler.ListMyActivity)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/queue-status", QueueStatus(notifier))
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
