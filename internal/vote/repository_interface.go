package vote

import "context"

type Repository interface {
	Upsert(ctx context.Context, betID, voterID, targetID int) error
	GetVote(ctx context.Context, betID, voterID int) (*Vote, error)
	DeleteUnconfirmed(ctx context.Context, betID, voterID int) error
	ListVotes(ctx context.Context, betID int) ([]Vote, error)
	Confirm(ctx context.Context, betID, voterID int) (bool, error)
	ConfirmAll(ctx context.Context, betID int) error
	ListSettleCandidates(ctx context.Context) ([]int, error)
}
