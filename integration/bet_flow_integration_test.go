package bet_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbordasch/befriends/internal/activity"
	"github.com/tbordasch/befriends/internal/bet"
	"github.com/tbordasch/befriends/internal/logger"
	"github.com/tbordasch/befriends/internal/points"
	"github.com/tbordasch/befriends/internal/user"
	"github.com/tbordasch/befriends/internal/vote"
)

func betCreateRequest(title string, stake int64) bet.CreateBetRequest {
	return bet.CreateBetRequest{
		Title:       title,
		StakeAmount: stake,
		Deadline:    time.Now().Add(7 * 24 * time.Hour),
	}
}

func newVoteService(db *sqlx.DB) vote.Service {
	return vote.NewService(
		vote.NewRepository(db),
		bet.NewRepository(db),
		points.NewRepository(db),
		activity.NewRepository(db),
		user.NewRepository(db),
		nil,
	)
}

// setupAcceptedPair creates a bet with two accepted participants and
// returns the bet. Each user starts with 1000 points and has staked.
func setupAcceptedPair(t *testing.T, db *sqlx.DB, creator, rival int, stake int64) *bet.Bet {
	t.Helper()
	ctx := context.Background()

	fundUser(t, db, creator, 1000)
	fundUser(t, db, rival, 1000)

	svc := newBetService(db)
	created, err := svc.Create(ctx, creator, betCreateRequest("Run a marathon before summer", stake))
	require.NoError(t, err)

	p, err := svc.RequestToJoin(ctx, rival, created.ID)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptJoinRequest(ctx, creator, p.ID))

	return created
}

func TestBetLifecycleIntegration_WinnerTakesPot(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()
	cleanDatabase(t, db)
	logger.Init()

	ctx := context.Background()
	creator := createTestUser(t, db, "runner@example.com", "Runner")
	rival := createTestUser(t, db, "rival@example.com", "Rival")

	created := setupAcceptedPair(t, db, creator, rival, 100)
	voteSvc := newVoteService(db)

	// everyone agrees the rival did it
	require.NoError(t, voteSvc.Cast(ctx, created.ID, creator, rival))
	require.NoError(t, voteSvc.Cast(ctx, created.ID, rival, rival))

	// first vote moved the bet into voting
	b, err := bet.NewRepository(db).GetBetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, bet.StatusVoting, b.Status)

	require.NoError(t, voteSvc.Confirm(ctx, created.ID, creator))
	require.NoError(t, voteSvc.Confirm(ctx, created.ID, rival))

	// second confirmation settled the bet
	b, err = bet.NewRepository(db).GetBetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, bet.StatusCompleted, b.Status)

	pointsRepo := points.NewRepository(db)
	rivalBalance, err := pointsRepo.Balance(ctx, rival)
	require.NoError(t, err)
	creatorBalance, err := pointsRepo.Balance(ctx, creator)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), rivalBalance)
	assert.Equal(t, int64(900), creatorBalance)

	// the payout landed in the ledger and the feed
	txs, err := pointsRepo.GetTransactions(ctx, rival, 10, 0)
	require.NoError(t, err)
	var payout *points.Transaction
	for i := range txs {
		if txs[i].TxType == points.TxTypeWinnings {
			payout = &txs[i]
		}
	}
	require.NotNil(t, payout)
	assert.Equal(t, int64(200), payout.Amount)

	feed, err := activity.NewRepository(db).ListForUser(ctx, rival, 10, 0)
	require.NoError(t, err)
	wonRecorded := false
	for _, entry := range feed {
		if entry.ActivityType == activity.TypeBetWon {
			wonRecorded = true
		}
	}
	assert.True(t, wonRecorded)

	// settling again is a no-op
	settled, err := voteSvc.TrySettle(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, settled)

	rivalBalance, err = pointsRepo.Balance(ctx, rival)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), rivalBalance)
}

func TestBetLifecycleIntegration_SplitVoteRefundsEveryone(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()
	cleanDatabase(t, db)
	logger.Init()

	ctx := context.Background()
	creator := createTestUser(t, db, "optimist@example.com", "Optimist")
	rival := createTestUser(t, db, "pessimist@example.com", "Pessimist")

	created := setupAcceptedPair(t, db, creator, rival, 150)
	voteSvc := newVoteService(db)

	// each claims the win for themselves
	require.NoError(t, voteSvc.Cast(ctx, created.ID, creator, creator))
	require.NoError(t, voteSvc.Cast(ctx, created.ID, rival, rival))
	require.NoError(t, voteSvc.Confirm(ctx, created.ID, creator))
	require.NoError(t, voteSvc.Confirm(ctx, created.ID, rival))

	b, err := bet.NewRepository(db).GetBetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, bet.StatusCompleted, b.Status)

	pointsRepo := points.NewRepository(db)
	for _, userID := range []int{creator, rival} {
		balance, err := pointsRepo.Balance(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), balance)
	}

	feed, err := activity.NewRepository(db).ListForUser(ctx, creator, 10, 0)
	require.NoError(t, err)
	tieRecorded := false
	for _, entry := range feed {
		if entry.ActivityType == activity.TypeBetTied {
			tieRecorded = true
		}
	}
	assert.True(t, tieRecorded)
}

func TestBetLifecycleIntegration_DeadlineImpliesConfirmation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()
	cleanDatabase(t, db)
	logger.Init()

	ctx := context.Background()
	creator := createTestUser(t, db, "early@example.com", "Early")
	rival := createTestUser(t, db, "late@example.com", "Late")

	created := setupAcceptedPair(t, db, creator, rival, 100)
	voteSvc := newVoteService(db)

	require.NoError(t, voteSvc.Cast(ctx, created.ID, creator, rival))
	require.NoError(t, voteSvc.Cast(ctx, created.ID, rival, rival))
	require.NoError(t, voteSvc.Confirm(ctx, created.ID, creator))

	// one confirmation outstanding, deadline not reached: no settlement
	settled, err := voteSvc.TrySettle(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, settled)

	_, err = db.Exec(`UPDATE bets SET deadline = NOW() - INTERVAL '1 hour' WHERE id = $1`, created.ID)
	require.NoError(t, err)

	// past the deadline the missing confirmation is implied
	settled, err = voteSvc.TrySettle(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, settled)

	var unconfirmed int
	require.NoError(t, db.Get(&unconfirmed,
		`SELECT COUNT(*) FROM votes WHERE bet_id = $1 AND confirmed_at IS NULL`, created.ID))
	assert.Equal(t, 0, unconfirmed)

	balance, err := points.NewRepository(db).Balance(ctx, rival)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), balance)
}

func TestDeleteBetIntegration_RefundsBeforeDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()
	cleanDatabase(t, db)
	logger.Init()

	ctx := context.Background()
	creator := createTestUser(t, db, "quitter@example.com", "Quitter")
	rival := createTestUser(t, db, "patient@example.com", "Patient")

	created := setupAcceptedPair(t, db, creator, rival, 100)

	svc := newBetService(db)
	require.NoError(t, svc.Delete(ctx, creator, created.ID))

	_, err := bet.NewRepository(db).GetBetByID(ctx, created.ID)
	require.ErrorIs(t, err, bet.ErrBetNotFound)

	pointsRepo := points.NewRepository(db)
	for _, userID := range []int{creator, rival} {
		balance, err := pointsRepo.Balance(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), balance)
	}

	// the ledger and the feed keep referencing the deleted bet
	txs, err := pointsRepo.GetTransactions(ctx, rival, 10, 0)
	require.NoError(t, err)
	var refund *points.Transaction
	for i := range txs {
		if txs[i].TxType == points.TxTypeRefund {
			refund = &txs[i]
		}
	}
	require.NotNil(t, refund)
	require.NotNil(t, refund.RelatedBetID)
	assert.Equal(t, created.ID, *refund.RelatedBetID)

	feed, err := activity.NewRepository(db).ListForUser(ctx, creator, 10, 0)
	require.NoError(t, err)
	var deleted *activity.Activity
	for i := range feed {
		if feed[i].ActivityType == activity.TypeBetDeleted {
			deleted = &feed[i]
		}
	}
	require.NotNil(t, deleted)
	require.NotNil(t, deleted.RelatedBetID)
	assert.Equal(t, created.ID, *deleted.RelatedBetID)
}

func TestInvitationFlowIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()
	cleanDatabase(t, db)
	logger.Init()

	ctx := context.Background()
	creator := createTestUser(t, db, "organizer@example.com", "Organizer")
	friend := createTestUser(t, db, "friend@example.com", "Friend")
	fundUser(t, db, creator, 1000)
	fundUser(t, db, friend, 1000)

	svc := newBetService(db)
	req := betCreateRequest("Cold shower every morning", 100)
	req.Privacy = bet.PrivacyFriends
	req.InviteeIDs = []int{friend}

	created, err := svc.Create(ctx, creator, req)
	require.NoError(t, err)
	assert.True(t, created.IsPrivate)
	assert.Nil(t, created.InviteCode)

	invites, err := svc.ListMyInvitations(ctx, friend)
	require.NoError(t, err)
	require.Len(t, invites, 1)
	assert.Equal(t, created.ID, invites[0].BetID)

	require.NoError(t, svc.AcceptInvitation(ctx, friend, invites[0].ID))

	balance, err := points.NewRepository(db).Balance(ctx, friend)
	require.NoError(t, err)
	assert.Equal(t, int64(900), balance)
}

func TestJoinViaLinkIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()
	cleanDatabase(t, db)
	logger.Init()

	ctx := context.Background()
	creator := createTestUser(t, db, "linker@example.com", "Linker")
	guest := createTestUser(t, db, "guest@example.com", "Guest")
	fundUser(t, db, creator, 1000)
	fundUser(t, db, guest, 1000)

	svc := newBetService(db)
	req := betCreateRequest("Learn 50 Spanish words", 100)
	req.Privacy = bet.PrivacyLink

	created, err := svc.Create(ctx, creator, req)
	require.NoError(t, err)
	require.NotNil(t, created.InviteCode)

	// wrong code is rejected
	_, err = svc.JoinViaLink(ctx, guest, created.ID, "WRONGCODE")
	require.ErrorIs(t, err, bet.ErrInvalidInviteCode)

	// the right code joins immediately, no approval step
	p, err := svc.JoinViaLink(ctx, guest, created.ID, *created.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, bet.ParticipantAccepted, p.Status)

	balance, err := points.NewRepository(db).Balance(ctx, guest)
	require.NoError(t, err)
	assert.Equal(t, int64(900), balance)
}
