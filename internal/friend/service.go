package friend

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tbordasch/befriends/internal/activity"
	"github.com/tbordasch/befriends/internal/logger"
	"github.com/tbordasch/befriends/internal/notify"
	"github.com/tbordasch/befriends/internal/user"
)

var (
	ErrSelfFriend         = errors.New("cannot send a friend request to yourself")
	ErrAlreadyFriends     = errors.New("already friends")
	ErrRequestAlreadySent = errors.New("friend request already sent")
	ErrRequestIncoming    = errors.New("this user already sent you a friend request")
	ErrNotAddressee       = errors.New("only the addressee can answer a friend request")
	ErrNotFriends         = errors.New("not friends with this user")
)

type Service interface {
	SendRequest(ctx context.Context, requesterID, addresseeID int) (*Friendship, error)
	Accept(ctx context.Context, userID, requestID int) error
	Decline(ctx context.Context, userID, requestID int) error
	Remove(ctx context.Context, userID, otherID int) error
	ListIncoming(ctx context.Context, userID int) ([]RequestWithUser, error)
	ListFriends(ctx context.Context, userID int) ([]Friend, error)
}

type service struct {
	repo         Repository
	activityRepo activity.Repository
	userRepo     user.Repository
	notifier     *notify.Service
}

func NewService(repo Repository, activityRepo activity.Repository, userRepo user.Repository, notifier *notify.Service) Service {
	return &service{
		repo:         repo,
		activityRepo: activityRepo,
		userRepo:     userRepo,
		notifier:     notifier,
	}
}

func (s *service) SendRequest(ctx context.Context, requesterID, addresseeID int) (*Friendship, error) {
	if requesterID == addresseeID {
		return nil, ErrSelfFriend
	}

	if _, err := s.userRepo.FindByID(ctx, addresseeID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetBetween(ctx, requesterID, addresseeID)
	if err == nil {
		switch existing.Status {
		case StatusAccepted:
			return nil, ErrAlreadyFriends
		case StatusPending:
			if existing.RequesterID == requesterID {
				return nil, ErrRequestAlreadySent
			}
			return nil, ErrRequestIncoming
		case StatusDeclined:
			// A declined pair may try again. The old row goes away so the
			// new request carries the right direction.
			if err := s.repo.Delete(ctx, existing.ID); err != nil && !errors.Is(err, ErrRequestNotFound) {
				return nil, err
			}
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	f, err := s.repo.Create(ctx, requesterID, addresseeID)
	if err != nil {
		// Two mirrored requests can race the insert; the pair index lets
		// only one row in.
		if errors.Is(err, ErrRequestExists) {
			return nil, ErrRequestAlreadySent
		}
		return nil, err
	}

	s.record(ctx, &activity.Activity{
		UserID:        requesterID,
		ActivityType:  activity.TypeFriendRequestSent,
		Message:       "You sent a friend request",
		RelatedUserID: &addresseeID,
	})

	if s.notifier != nil {
		requester, err := s.userRepo.FindByID(ctx, requesterID)
		addressee, addrErr := s.userRepo.FindByID(ctx, addresseeID)
		if err == nil && addrErr == nil {
			s.notifier.SendFriendRequest(ctx, addressee.Email, addressee.Name, requester.Name)
		}
	}

	return f, nil
}

func (s *service) Accept(ctx context.Context, userID, requestID int) error {
	f, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if f.AddresseeID != userID {
		return ErrNotAddressee
	}

	if err := s.repo.UpdateStatus(ctx, requestID, StatusPending, StatusAccepted); err != nil {
		return err
	}

	s.record(ctx, &activity.Activity{
		UserID:        userID,
		ActivityType:  activity.TypeFriendRequestAccepted,
		Message:       "You accepted a friend request",
		RelatedUserID: &f.RequesterID,
	})

	if s.notifier != nil {
		requester, err := s.userRepo.FindByID(ctx, f.RequesterID)
		accepter, accErr := s.userRepo.FindByID(ctx, userID)
		if err == nil && accErr == nil {
			s.notifier.SendFriendRequestAccepted(ctx, requester.Email, requester.Name, accepter.Name)
		}
	}

	return nil
}

func (s *service) Decline(ctx context.Context, userID, requestID int) error {
	f, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if f.AddresseeID != userID {
		return ErrNotAddressee
	}

	return s.repo.UpdateStatus(ctx, requestID, StatusPending, StatusDeclined)
}

func (s *service) Remove(ctx context.Context, userID, otherID int) error {
	f, err := s.repo.GetBetween(ctx, userID, otherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFriends
		}
		return err
	}
	if f.Status != StatusAccepted {
		return ErrNotFriends
	}

	return s.repo.Delete(ctx, f.ID)
}

func (s *service) ListIncoming(ctx context.Context, userID int) ([]RequestWithUser, error) {
	return s.repo.ListIncoming(ctx, userID)
}

func (s *service) ListFriends(ctx context.Context, userID int) ([]Friend, error) {
	return s.repo.ListFriends(ctx, userID)
}

func (s *service) record(ctx context.Context, a *activity.Activity) {
	if err := s.activityRepo.Record(ctx, a); err != nil {
		logger.Errorf("Failed to record activity %s for user %d: %v", a.ActivityType, a.UserID, err)
	}
}
