package bet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tbordasch/befriends/internal/activity"
	"github.com/tbordasch/befriends/internal/logger"
	"github.com/tbordasch/befriends/internal/metrics"
	"github.com/tbordasch/befriends/internal/notify"
	"github.com/tbordasch/befriends/internal/points"
	"github.com/tbordasch/befriends/internal/user"
)

var (
	ErrBetCompleted    = errors.New("bet already completed")
	ErrBetPrivate      = errors.New("bet is private")
	ErrDeadlinePast    = errors.New("deadline must be in the future")
	ErrInviteesMissing = errors.New("friends-only bet needs at least one invitee")
	ErrStakeLocked     = errors.New("stake cannot change once others have joined")
)

type Service interface {
	Create(ctx context.Context, creatorID int, req CreateBetRequest) (*Bet, error)
	Update(ctx context.Context, creatorID, betID int, req UpdateBetRequest) (*Bet, error)
	Delete(ctx context.Context, creatorID, betID int) error
	GetBet(ctx context.Context, betID int) (*BetWithParticipants, error)
	ListMyBets(ctx context.Context, userID int) ([]Bet, error)
	BrowseOpenBets(ctx context.Context, limit, offset int) ([]Bet, error)

	JoinViaLink(ctx context.Context, userID, betID int, inviteCode string) (*Participant, error)
	RequestToJoin(ctx context.Context, userID, betID int) (*Participant, error)
	AcceptJoinRequest(ctx context.Context, creatorID, participantID int) error
	DeclineJoinRequest(ctx context.Context, creatorID, participantID int) error
	InviteFriends(ctx context.Context, creatorID, betID int, userIDs []int) ([]Participant, error)
	AcceptInvitation(ctx context.Context, userID, participantID int) error
	DeclineInvitation(ctx context.Context, userID, participantID int) error
	ListMyInvitations(ctx context.Context, userID int) ([]ParticipantWithBet, error)
	ListJoinRequests(ctx context.Context, creatorID int) ([]ParticipantWithBet, error)
}

type service struct {
	betRepo      Repository
	pointsRepo   points.Repository
	activityRepo activity.Repository
	userRepo     user.Repository
	notifier     *notify.Service
}

func NewService(
	betRepo Repository,
	pointsRepo points.Repository,
	activityRepo activity.Repository,
	userRepo user.Repository,
	notifier *notify.Service,
) Service {
	return &service{
		betRepo:      betRepo,
		pointsRepo:   pointsRepo,
		activityRepo: activityRepo,
		userRepo:     userRepo,
		notifier:     notifier,
	}
}

func (s *service) Create(ctx context.Context, creatorID int, req CreateBetRequest) (*Bet, error) {
	if req.StakeAmount < 1 {
		return nil, errors.New("stake must be at least 1 point")
	}
	if !req.Deadline.After(time.Now()) {
		return nil, ErrDeadlinePast
	}

	privacy := req.Privacy
	if privacy == "" {
		privacy = PrivacyPublic
	}

	invitees := dedupeIDs(req.InviteeIDs, creatorID)
	if privacy == PrivacyFriends && len(invitees) == 0 {
		return nil, ErrInviteesMissing
	}

	b := &Bet{
		CreatorID:   creatorID,
		Title:       req.Title,
		Description: req.Description,
		StakeAmount: req.StakeAmount,
		Deadline:    req.Deadline,
		IsPrivate:   privacy != PrivacyPublic,
	}

	if privacy == PrivacyLink {
		code, err := GenerateInviteCode()
		if err != nil {
			return nil, err
		}
		b.InviteCode = &code
	}

	created, err := s.betRepo.CreateBet(ctx, b)
	if err != nil {
		return nil, err
	}

	// Creator stakes up front. If the deduct fails the bet row is removed
	// again so nothing half-created is left behind.
	if err := s.pointsRepo.Deduct(ctx, creatorID, created.StakeAmount, points.TxTypeStake, &created.ID); err != nil {
		if delErr := s.betRepo.DeleteBet(ctx, created.ID); delErr != nil {
			logger.Errorf("Failed to remove bet %d after stake deduct failed: %v", created.ID, delErr)
		}
		return nil, err
	}

	if _, err := s.betRepo.AddParticipant(ctx, created.ID, creatorID, ParticipantAccepted); err != nil {
		if refundErr := s.pointsRepo.Add(ctx, creatorID, created.StakeAmount, points.TxTypeRefund, &created.ID); refundErr != nil {
			logger.Errorf("Compensating refund failed for user %d on bet %d: %v", creatorID, created.ID, refundErr)
		}
		if delErr := s.betRepo.DeleteBet(ctx, created.ID); delErr != nil {
			logger.Errorf("Failed to remove bet %d after participant insert failed: %v", created.ID, delErr)
		}
		return nil, err
	}

	for _, inviteeID := range invitees {
		if _, err := s.betRepo.AddParticipant(ctx, created.ID, inviteeID, ParticipantPending); err != nil {
			logger.Errorf("Failed to invite user %d to bet %d: %v", inviteeID, created.ID, err)
			continue
		}
		s.recordInvite(ctx, created, creatorID, inviteeID)
	}

	s.record(ctx, &activity.Activity{
		UserID:       creatorID,
		ActivityType: activity.TypeBetCreated,
		Message:      fmt.Sprintf("You created \"%s\"", created.Title),
		RelatedBetID: &created.ID,
	})

	metrics.RecordBetCreated(privacy)
	metrics.RecordPointsMoved(points.TxTypeStake, created.StakeAmount)

	return created, nil
}

func (s *service) Update(ctx context.Context, creatorID, betID int, req UpdateBetRequest) (*Bet, error) {
	b, err := s.betRepo.GetBetByID(ctx, betID)
	if err != nil {
		return nil, err
	}
	if b.CreatorID != creatorID {
		return nil, ErrNotCreator
	}
	if b.Status != StatusOpen {
		return nil, ErrBetNotOpen
	}

	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.Deadline != nil {
		if !req.Deadline.After(time.Now()) {
			return nil, ErrDeadlinePast
		}
		b.Deadline = *req.Deadline
	}

	var stakeDelta int64
	if req.StakeAmount != nil && *req.StakeAmount != b.StakeAmount {
		// Once anyone besides the creator has paid in, the stake is part
		// of everyone's deal and stays fixed.
		accepted, err := s.betRepo.CountAccepted(ctx, betID)
		if err != nil {
			return nil, err
		}
		if accepted > 1 {
			return nil, ErrStakeLocked
		}

		delta := *req.StakeAmount - b.StakeAmount
		if delta > 0 {
			if err := s.pointsRepo.Deduct(ctx, creatorID, delta, points.TxTypeStakeChange, &b.ID); err != nil {
				return nil, err
			}
		} else {
			if err := s.pointsRepo.Add(ctx, creatorID, -delta, points.TxTypeStakeChange, &b.ID); err != nil {
				return nil, err
			}
		}
		b.StakeAmount = *req.StakeAmount
		stakeDelta = delta
	}

	if req.Privacy != nil {
		switch *req.Privacy {
		case PrivacyPublic, PrivacyFriends:
			b.IsPrivate = *req.Privacy != PrivacyPublic
			b.InviteCode = nil
		case PrivacyLink:
			b.IsPrivate = true
			if b.InviteCode == nil {
				code, err := GenerateInviteCode()
				if err != nil {
					return nil, err
				}
				b.InviteCode = &code
			}
		}
	}

	if err := s.betRepo.UpdateBet(ctx, b); err != nil {
		// The write can lose to a concurrent status change; hand the
		// already-charged stake delta back before reporting the error.
		if stakeDelta > 0 {
			if compErr := s.pointsRepo.Add(ctx, creatorID, stakeDelta, points.TxTypeStakeChange, &b.ID); compErr != nil {
				logger.Errorf("Compensating credit of %d points failed for user %d on bet %d: %v", stakeDelta, creatorID, b.ID, compErr)
			}
		} else if stakeDelta < 0 {
			if compErr := s.pointsRepo.Deduct(ctx, creatorID, -stakeDelta, points.TxTypeStakeChange, &b.ID); compErr != nil {
				logger.Errorf("Compensating charge of %d points failed for user %d on bet %d: %v", -stakeDelta, creatorID, b.ID, compErr)
			}
		}
		return nil, err
	}

	return b, nil
}

func (s *service) Delete(ctx context.Context, creatorID, betID int) error {
	b, err := s.betRepo.GetBetByID(ctx, betID)
	if err != nil {
		return err
	}
	if b.CreatorID != creatorID {
		return ErrNotCreator
	}
	if b.Status == StatusCompleted {
		return ErrBetCompleted
	}

	// Claim the bet through the same conditional update settlement uses.
	// Whoever flips the status owns the stakes: a concurrent Delete or
	// settlement that loses here must not touch points.
	claimed, err := s.betRepo.MarkCompleted(ctx, betID)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrBetCompleted
	}

	participants, err := s.betRepo.ListParticipants(ctx, betID)
	if err != nil {
		return err
	}

	accepted := make([]int, 0, len(participants))
	for _, p := range participants {
		if p.Status == ParticipantAccepted {
			accepted = append(accepted, p.UserID)
		}
	}

	// Refunds go out before the row disappears. A failed credit is logged
	// for manual reconciliation, it must not block the rest of the batch
	// or the deletion the creator asked for.
	results := s.pointsRepo.BulkRefund(ctx, accepted, b.StakeAmount, &betID)
	for _, res := range results {
		if !res.Credited {
			metrics.RecordRefundFailure()
			logger.Errorf("Refund failed for user %d on deleted bet %d: %s", res.UserID, betID, res.Error)
		}
	}

	s.record(ctx, &activity.Activity{
		UserID:       creatorID,
		ActivityType: activity.TypeBetDeleted,
		Message:      fmt.Sprintf("You deleted \"%s\"", b.Title),
		RelatedBetID: &betID,
	})

	if s.notifier != nil {
		for _, p := range participants {
			if p.Status != ParticipantAccepted || p.UserID == creatorID {
				continue
			}
			s.notifier.SendBetDeleted(ctx, p.UserEmail, p.UserName, b.Title, b.StakeAmount)
		}
	}

	if err := s.betRepo.DeleteBet(ctx, betID); err != nil {
		return err
	}

	metrics.RecordBetDeleted()
	metrics.RecordPointsMoved(points.TxTypeRefund, b.StakeAmount*int64(len(accepted)))

	return nil
}

func (s *service) GetBet(ctx context.Context, betID int) (*BetWithParticipants, error) {
	b, err := s.betRepo.GetBetByID(ctx, betID)
	if err != nil {
		return nil, err
	}

	participants, err := s.betRepo.ListParticipants(ctx, betID)
	if err != nil {
		return nil, err
	}

	acceptedCount := 0
	for _, p := range participants {
		if p.Status == ParticipantAccepted {
			acceptedCount++
		}
	}

	return &BetWithParticipants{
		Bet:          *b,
		Participants: participants,
		Pot:          b.StakeAmount * int64(acceptedCount),
	}, nil
}

func (s *service) ListMyBets(ctx context.Context, userID int) ([]Bet, error) {
	return s.betRepo.ListUserBets(ctx, userID)
}

func (s *service) BrowseOpenBets(ctx context.Context, limit, offset int) ([]Bet, error) {
	return s.betRepo.ListOpenPublicBets(ctx, limit, offset)
}

func (s *service) JoinViaLink(ctx context.Context, userID, betID int, inviteCode string) (*Participant, error) {
	b, err := s.betRepo.GetBetByID(ctx, betID)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusOpen {
		return nil, ErrBetNotOpen
	}
	if !b.IsPrivate || b.InviteCode == nil || *b.InviteCode != inviteCode {
		return nil, ErrInvalidInviteCode
	}

	if _, err := s.betRepo.GetParticipant(ctx, betID, userID); err == nil {
		return nil, ErrAlreadyParticipant
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return s.payAndJoin(ctx, b, userID)
}

func (s *service) RequestToJoin(ctx context.Context, userID, betID int) (*Participant, error) {
	b, err := s.betRepo.GetBetByID(ctx, betID)
	if err != nil {
		return nil, err
	}
	if b.IsPrivate {
		return nil, ErrBetPrivate
	}
	if b.CreatorID == userID {
		return nil, ErrAlreadyParticipant
	}
	if b.Status != StatusOpen {
		return nil, ErrBetNotOpen
	}

	existing, err := s.betRepo.GetParticipant(ctx, betID, userID)
	if err == nil {
		switch existing.Status {
		case ParticipantAccepted:
			return nil, ErrAlreadyParticipant
		case ParticipantPending:
			return nil, ErrRequestAlreadySent
		case ParticipantDeclined:
			if err := s.betRepo.UpdateParticipantStatus(ctx, existing.ID, ParticipantDeclined, ParticipantPending); err != nil {
				return nil, err
			}
			existing.Status = ParticipantPending
			s.recordJoinRequest(ctx, b, userID)
			return existing, nil
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	p, err := s.betRepo.AddParticipant(ctx, betID, userID, ParticipantPending)
	if err != nil {
		if errors.Is(err, ErrAlreadyParticipant) {
			return nil, ErrRequestAlreadySent
		}
		return nil, err
	}

	s.recordJoinRequest(ctx, b, userID)
	return p, nil
}

func (s *service) AcceptJoinRequest(ctx context.Context, creatorID, participantID int) error {
	p, err := s.betRepo.GetParticipantByID(ctx, participantID)
	if err != nil {
		return err
	}

	b, err := s.betRepo.GetBetByID(ctx, p.BetID)
	if err != nil {
		return err
	}
	if b.CreatorID != creatorID {
		return ErrNotCreator
	}
	if p.Status != ParticipantPending {
		return ErrNoPendingRequest
	}
	if b.Status != StatusOpen {
		return ErrBetNotOpen
	}

	// The requester pays on acceptance. If the deduct fails the request
	// simply stays pending and the creator sees why.
	if err := s.pointsRepo.Deduct(ctx, p.UserID, b.StakeAmount, points.TxTypeStake, &b.ID); err != nil {
		return err
	}

	if err := s.betRepo.UpdateParticipantStatus(ctx, p.ID, ParticipantPending, ParticipantAccepted); err != nil {
		if refundErr := s.pointsRepo.Add(ctx, p.UserID, b.StakeAmount, points.TxTypeRefund, &b.ID); refundErr != nil {
			logger.Errorf("Compensating refund failed for user %d on bet %d: %v", p.UserID, b.ID, refundErr)
		}
		return err
	}

	s.record(ctx, &activity.Activity{
		UserID:        p.UserID,
		ActivityType:  activity.TypeJoinRequestAccepted,
		Message:       fmt.Sprintf("Your request to join \"%s\" was accepted", b.Title),
		RelatedBetID:  &b.ID,
		RelatedUserID: &creatorID,
	})

	metrics.RecordPointsMoved(points.TxTypeStake, b.StakeAmount)

	if s.notifier != nil {
		if u, err := s.userRepo.FindByID(ctx, p.UserID); err == nil && u != nil {
			s.notifier.SendJoinRequestAccepted(ctx, u.Email, u.Name, b.Title, b.StakeAmount)
		}
	}

	return nil
}

func (s *service) DeclineJoinRequest(ctx context.Context, creatorID, participantID int) error {
	p, err := s.betRepo.GetParticipantByID(ctx, participantID)
	if err != nil {
		return err
	}

	b, err := s.betRepo.GetBetByID(ctx, p.BetID)
	if err != nil {
		return err
	}
	if b.CreatorID != creatorID {
		return ErrNotCreator
	}

	if err := s.betRepo.UpdateParticipantStatus(ctx, p.ID, ParticipantPending, ParticipantDeclined); err != nil {
		return err
	}

	s.record(ctx, &activity.Activity{
		UserID:        p.UserID,
		ActivityType:  activity.TypeJoinRequestDeclined,
		Message:       fmt.Sprintf("Your request to join \"%s\" was declined", b.Title),
		RelatedBetID:  &b.ID,
		RelatedUserID: &creatorID,
	})

	return nil
}

func (s *service) InviteFriends(ctx context.Context, creatorID, betID int, userIDs []int) ([]Participant, error) {
	b, err := s.betRepo.GetBetByID(ctx, betID)
	if err != nil {
		return nil, err
	}
	if b.CreatorID != creatorID {
		return nil, ErrNotCreator
	}
	if b.Status != StatusOpen {
		return nil, ErrBetNotOpen
	}

	candidates := dedupeIDs(userIDs, creatorID)
	if len(candidates) == 0 {
		return []Participant{}, nil
	}

	existing, err := s.betRepo.ExistingParticipantIDs(ctx, betID, candidates)
	if err != nil {
		return nil, err
	}
	existingSet := make(map[int]bool, len(existing))
	for _, id := range existing {
		existingSet[id] = true
	}

	invited := make([]Participant, 0, len(candidates))
	for _, inviteeID := range candidates {
		if existingSet[inviteeID] {
			continue
		}
		p, err := s.betRepo.AddParticipant(ctx, betID, inviteeID, ParticipantPending)
		if err != nil {
			logger.Errorf("Failed to invite user %d to bet %d: %v", inviteeID, betID, err)
			continue
		}
		invited = append(invited, *p)
		s.recordInvite(ctx, b, creatorID, inviteeID)
	}

	return invited, nil
}

func (s *service) AcceptInvitation(ctx context.Context, userID, participantID int) error {
	p, err := s.betRepo.GetParticipantByID(ctx, participantID)
	if err != nil {
		return err
	}
	if p.UserID != userID || p.Status != ParticipantPending {
		return ErrNoPendingRequest
	}

	b, err := s.betRepo.GetBetByID(ctx, p.BetID)
	if err != nil {
		return err
	}
	if b.Status != StatusOpen {
		return ErrBetNotOpen
	}

	if err := s.pointsRepo.Deduct(ctx, userID, b.StakeAmount, points.TxTypeStake, &b.ID); err != nil {
		return err
	}

	if err := s.betRepo.UpdateParticipantStatus(ctx, p.ID, ParticipantPending, ParticipantAccepted); err != nil {
		if refundErr := s.pointsRepo.Add(ctx, userID, b.StakeAmount, points.TxTypeRefund, &b.ID); refundErr != nil {
			logger.Errorf("Compensating refund failed for user %d on bet %d: %v", userID, b.ID, refundErr)
		}
		return err
	}

	s.record(ctx, &activity.Activity{
		UserID:        userID,
		ActivityType:  activity.TypeBetInvitationAccepted,
		Message:       fmt.Sprintf("You joined \"%s\"", b.Title),
		RelatedBetID:  &b.ID,
		RelatedUserID: &b.CreatorID,
	})

	metrics.RecordPointsMoved(points.TxTypeStake, b.StakeAmount)

	return nil
}

func (s *service) DeclineInvitation(ctx context.Context, userID, participantID int) error {
	p, err := s.betRepo.GetParticipantByID(ctx, participantID)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return ErrNoPendingRequest
	}

	b, err := s.betRepo.GetBetByID(ctx, p.BetID)
	if err != nil {
		return err
	}

	if err := s.betRepo.UpdateParticipantStatus(ctx, p.ID, ParticipantPending, ParticipantDeclined); err != nil {
		return err
	}

	s.record(ctx, &activity.Activity{
		UserID:        userID,
		ActivityType:  activity.TypeBetInvitationDeclined,
		Message:       fmt.Sprintf("You declined the invitation to \"%s\"", b.Title),
		RelatedBetID:  &b.ID,
		RelatedUserID: &b.CreatorID,
	})

	return nil
}

func (s *service) ListMyInvitations(ctx context.Context, userID int) ([]ParticipantWithBet, error) {
	return s.betRepo.ListPendingInvitesForUser(ctx, userID)
}

func (s *service) ListJoinRequests(ctx context.Context, creatorID int) ([]ParticipantWithBet, error) {
	return s.betRepo.ListPendingForCreator(ctx, creatorID)
}

// payAndJoin deducts the stake and inserts an accepted participant row,
// compensating the deduct when the insert loses a race.
func (s *service) payAndJoin(ctx context.Context, b *Bet, userID int) (*Participant, error) {
	if err := s.pointsRepo.Deduct(ctx, userID, b.StakeAmount, points.TxTypeStake, &b.ID); err != nil {
		return nil, err
	}

	p, err := s.betRepo.AddParticipant(ctx, b.ID, userID, ParticipantAccepted)
	if err != nil {
		if refundErr := s.pointsRepo.Add(ctx, userID, b.StakeAmount, points.TxTypeRefund, &b.ID); refundErr != nil {
			logger.Errorf("Compensating refund failed for user %d on bet %d: %v", userID, b.ID, refundErr)
		}
		return nil, err
	}

	s.record(ctx, &activity.Activity{
		UserID:       userID,
		ActivityType: activity.TypeBetJoined,
		Message:      fmt.Sprintf("You joined \"%s\"", b.Title),
		RelatedBetID: &b.ID,
	})

	metrics.RecordPointsMoved(points.TxTypeStake, b.StakeAmount)

	return p, nil
}

func (s *service) recordJoinRequest(ctx context.Context, b *Bet, userID int) {
	s.record(ctx, &activity.Activity{
		UserID:        userID,
		ActivityType:  activity.TypeJoinRequestSent,
		Message:       fmt.Sprintf("You asked to join \"%s\"", b.Title),
		RelatedBetID:  &b.ID,
		RelatedUserID: &b.CreatorID,
	})

	if s.notifier == nil {
		return
	}
	creator, err := s.userRepo.FindByID(ctx, b.CreatorID)
	if err != nil || creator == nil {
		return
	}
	requester, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || requester == nil {
		return
	}
	s.notifier.SendJoinRequest(ctx, creator.Email, creator.Name, requester.Name, b.Title)
}

func (s *service) recordInvite(ctx context.Context, b *Bet, creatorID, inviteeID int) {
	s.record(ctx, &activity.Activity{
		UserID:        inviteeID,
		ActivityType:  activity.TypeBetInvited,
		Message:       fmt.Sprintf("You were invited to \"%s\"", b.Title),
		RelatedBetID:  &b.ID,
		RelatedUserID: &creatorID,
	})

	if s.notifier == nil {
		return
	}
	invitee, err := s.userRepo.FindByID(ctx, inviteeID)
	if err != nil || invitee == nil {
		return
	}
	creator, err := s.userRepo.FindByID(ctx, creatorID)
	if err != nil || creator == nil {
		return
	}
	s.notifier.SendBetInvitation(ctx, invitee.Email, invitee.Name, creator.Name, b.Title, b.StakeAmount)
}

func (s *service) record(ctx context.Context, a *activity.Activity) {
	if err := s.activityRepo.Record(ctx, a); err != nil {
		logger.Errorf("Failed to record activity %s for user %d: %v", a.ActivityType, a.UserID, err)
	}
}

func dedupeIDs(ids []int, exclude int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id == exclude || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
