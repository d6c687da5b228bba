package user

import (
	"context"
	"errors"

	"github.com/tbordasch/befriends/internal/auth"
	"github.com/tbordasch/befriends/internal/logger"
	"github.com/tbordasch/befriends/internal/points"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*User, string, string, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
	Search(ctx context.Context, query string, limit int) ([]User, error)
}

type service struct {
	repo        Repository
	pointsRepo  points.Repository
	jwtSecret   string
	signupBonus int64
}

func NewService(repo Repository, pointsRepo points.Repository, jwtSecret string, signupBonus int64) Service {
	return &service{
		repo:        repo,
		pointsRepo:  pointsRepo,
		jwtSecret:   jwtSecret,
		signupBonus: signupBonus,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	u, err := s.repo.Create(ctx, req.Name, req.Email, passwordHash)
	if err != nil {
		return nil, "", "", err
	}

	// The welcome bonus goes through the ledger like any other credit so
	// the first balance is already auditable.
	if s.signupBonus > 0 {
		if err := s.pointsRepo.Add(ctx, u.ID, s.signupBonus, points.TxTypeSignupBonus, nil); err != nil {
			logger.Errorf("Failed to credit signup bonus to user %d: %v", u.ID, err)
		} else {
			u.Points = s.signupBonus
		}
	}

	accessToken, refreshToken, err := auth.GenerateTokens(u.ID, u.Email, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return u, accessToken, refreshToken, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := auth.GenerateTokens(u.ID, u.Email, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return u, accessToken, refreshToken, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, ErrUserNotFound
	}

	newAccessToken, err := auth.GenerateAccessToken(u.ID, u.Email, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, u, nil
}

func (s *service) Search(ctx context.Context, query string, limit int) ([]User, error) {
	return s.repo.SearchByName(ctx, query, limit)
}
