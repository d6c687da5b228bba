package vote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tbordasch/befriends/internal/activity"
	"github.com/tbordasch/befriends/internal/bet"
	"github.com/tbordasch/befriends/internal/logger"
	"github.com/tbordasch/befriends/internal/metrics"
	"github.com/tbordasch/befriends/internal/notify"
	"github.com/tbordasch/befriends/internal/points"
	"github.com/tbordasch/befriends/internal/user"
)

const (
	OutcomeWon    = "won"
	OutcomeRefund = "refund"
)

type Service interface {
	Cast(ctx context.Context, betID, voterID, targetID int) error
	Revoke(ctx context.Context, betID, voterID int) error
	Confirm(ctx context.Context, betID, voterID int) error
	GetStatus(ctx context.Context, betID int) (*Status, error)

	// TrySettle settles the bet if it is ready. It is idempotent and safe
	// to call from any trigger: a vote, a confirmation or the sweep.
	TrySettle(ctx context.Context, betID int) (bool, error)
}

type service struct {
	voteRepo     Repository
	betRepo      bet.Repository
	pointsRepo   points.Repository
	activityRepo activity.Repository
	userRepo     user.Repository
	notifier     *notify.Service
}

func NewService(
	voteRepo Repository,
	betRepo bet.Repository,
	pointsRepo points.Repository,
	activityRepo activity.Repository,
	userRepo user.Repository,
	notifier *notify.Service,
) Service {
	return &service{
		voteRepo:     voteRepo,
		betRepo:      betRepo,
		pointsRepo:   pointsRepo,
		activityRepo: activityRepo,
		userRepo:     userRepo,
		notifier:     notifier,
	}
}

func (s *service) Cast(ctx context.Context, betID, voterID, targetID int) error {
	b, err := s.betRepo.GetBetByID(ctx, betID)
	if err != nil {
		return err
	}
	if b.Status == bet.StatusCompleted {
		return bet.ErrBetCompleted
	}

	voterOK, err := s.betRepo.IsAcceptedParticipant(ctx, betID, voterID)
	if err != nil {
		return err
	}
	if !voterOK {
		return bet.ErrNotAParticipant
	}

	targetOK, err := s.betRepo.IsAcceptedParticipant(ctx, betID, targetID)
	if err != nil {
		return err
	}
	if !targetOK {
		return bet.ErrNotAParticipant
	}

	if err := s.voteRepo.Upsert(ctx, betID, voterID, targetID); err != nil {
		return err
	}

	// First vote moves the bet out of admission. Losing this race just
	// means another voter got there first.
	if b.Status == bet.StatusOpen {
		if err := s.betRepo.AdvanceStatus(ctx, betID, bet.StatusOpen, bet.StatusVoting); err != nil &&
			!errors.Is(err, bet.ErrInvalidTransition) {
			return err
		}
	}

	if _, err := s.TrySettle(ctx, betID); err != nil {
		return err
	}

	return nil
}

func (s *service) Revoke(ctx context.Context, betID, voterID int) error {
	b, err := s.betRepo.GetBetByID(ctx, betID)
	if err != nil {
		return err
	}
	if b.Status == bet.StatusCompleted {
		return bet.ErrBetCompleted
	}

	v, err := s.voteRepo.GetVote(ctx, betID, voterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Nothing to revoke is not an error.
			return nil
		}
		return err
	}
	if v.Confirmed() {
		return ErrAlreadyConfirmed
	}

	return s.voteRepo.DeleteUnconfirmed(ctx, betID, voterID)
}

func (s *service) Confirm(ctx context.Context, betID, voterID int) error {
	b, err := s.betRepo.GetBetByID(ctx, betID)
	if err != nil {
		return err
	}
	if b.Status == bet.StatusCompleted {
		return bet.ErrBetCompleted
	}

	confirmed, err := s.voteRepo.Confirm(ctx, betID, voterID)
	if err != nil {
		return err
	}
	if !confirmed {
		if _, err := s.voteRepo.GetVote(ctx, betID, voterID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNoVoteToConfirm
			}
			return err
		}
		return ErrAlreadyConfirmed
	}

	if _, err := s.TrySettle(ctx, betID); err != nil {
		return err
	}

	return nil
}

func (s *service) GetStatus(ctx context.Context, betID int) (*Status, error) {
	if _, err := s.betRepo.GetBetByID(ctx, betID); err != nil {
		return nil, err
	}

	total, err := s.betRepo.CountAccepted(ctx, betID)
	if err != nil {
		return nil, err
	}

	votes, err := s.voteRepo.ListVotes(ctx, betID)
	if err != nil {
		return nil, err
	}

	confirmed := 0
	for _, v := range votes {
		if v.Confirmed() {
			confirmed++
		}
	}

	return &Status{
		BetID:          betID,
		Participants:   total,
		VotesCast:      len(votes),
		VotesConfirmed: confirmed,
		Votes:          votes,
	}, nil
}

func (s *service) TrySettle(ctx context.Context, betID int) (bool, error) {
	b, err := s.betRepo.GetBetByID(ctx, betID)
	if err != nil {
		return false, err
	}
	if b.Status == bet.StatusCompleted {
		return false, nil
	}

	acceptedIDs, err := s.betRepo.ListAcceptedUserIDs(ctx, betID)
	if err != nil {
		return false, err
	}
	total := len(acceptedIDs)
	if total == 0 {
		return false, nil
	}

	votes, err := s.voteRepo.ListVotes(ctx, betID)
	if err != nil {
		return false, err
	}
	if len(votes) != total {
		return false, nil
	}

	deadlinePassed := time.Now().After(b.Deadline)

	allConfirmed := true
	for _, v := range votes {
		if !v.Confirmed() {
			allConfirmed = false
			break
		}
	}
	if !allConfirmed && !deadlinePassed {
		return false, nil
	}

	// Past the deadline outstanding confirmations are implied.
	if !allConfirmed {
		if err := s.voteRepo.ConfirmAll(ctx, betID); err != nil {
			return false, err
		}
	}

	tally := make(map[int]int, total)
	for _, v := range votes {
		tally[v.VotedForUserID]++
	}

	winnerID := 0
	for target, count := range tally {
		if count == total {
			winnerID = target
		}
	}

	// The conditional status update is the settlement gate: exactly one
	// caller wins it, everyone else walks away without touching points.
	won, err := s.betRepo.MarkCompleted(ctx, betID)
	if err != nil {
		return false, err
	}
	if !won {
		metrics.RecordSettlementRace()
		logger.Debugf("Settlement race on bet %d: %v", betID, ErrSettlementRace)
		return false, nil
	}

	// Secondary guard for the crash-recovery path: if a previous attempt
	// already paid out but died before anything else, do not pay twice.
	settled, err := s.activityRepo.HasSettlement(ctx, betID)
	if err != nil {
		return false, err
	}
	if settled {
		logger.Warnf("Bet %d already has a settlement record, skipping payout", betID)
		return true, nil
	}

	if winnerID != 0 {
		return true, s.payWinner(ctx, b, winnerID, total)
	}
	return true, s.refundAll(ctx, b, acceptedIDs)
}

func (s *service) payWinner(ctx context.Context, b *bet.Bet, winnerID, total int) error {
	pot := b.StakeAmount * int64(total)

	if err := s.pointsRepo.Add(ctx, winnerID, pot, points.TxTypeWinnings, &b.ID); err != nil {
		// Status is already completed; the pot is owed. Loud log, manual
		// reconciliation.
		logger.Errorf("Payout of %d points to user %d for bet %d failed: %v", pot, winnerID, b.ID, err)
		return err
	}

	s.record(ctx, &activity.Activity{
		UserID:       winnerID,
		ActivityType: activity.TypeBetWon,
		Message:      fmt.Sprintf("You won \"%s\" and collected %d points", b.Title, pot),
		RelatedBetID: &b.ID,
	})

	metrics.RecordBetSettled(OutcomeWon)
	metrics.RecordPointsMoved(points.TxTypeWinnings, pot)

	if s.notifier != nil {
		if u, err := s.userRepo.FindByID(ctx, winnerID); err == nil && u != nil {
			s.notifier.SendBetWon(ctx, u.Email, u.Name, b.Title, pot)
		}
	}

	return nil
}

func (s *service) refundAll(ctx context.Context, b *bet.Bet, acceptedIDs []int) error {
	results := s.pointsRepo.BulkRefund(ctx, acceptedIDs, b.StakeAmount, &b.ID)
	for _, res := range results {
		if !res.Credited {
			metrics.RecordRefundFailure()
			logger.Errorf("Refund failed for user %d on bet %d: %s", res.UserID, b.ID, res.Error)
			continue
		}

		userID := res.UserID
		s.record(ctx, &activity.Activity{
			UserID:       userID,
			ActivityType: activity.TypeBetTied,
			Message:      fmt.Sprintf("\"%s\" ended without a unanimous winner, your stake was returned", b.Title),
			RelatedBetID: &b.ID,
		})

		if s.notifier != nil {
			if u, err := s.userRepo.FindByID(ctx, userID); err == nil && u != nil {
				s.notifier.SendBetRefunded(ctx, u.Email, u.Name, b.Title, b.StakeAmount)
			}
		}
	}

	metrics.RecordBetSettled(OutcomeRefund)
	metrics.RecordPointsMoved(points.TxTypeRefund, b.StakeAmount*int64(len(acceptedIDs)))

	return nil
}

func (s *service) record(ctx context.Context, a *activity.Activity) {
	if err := s.activityRepo.Record(ctx, a); err != nil {
		logger.Errorf("Failed to record activity %s for user %d: %v", a.ActivityType, a.UserID, err)
	}
}
