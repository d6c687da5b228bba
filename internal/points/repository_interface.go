package points

import "context"

type Repository interface {
	Deduct(ctx context.Context, userID int, amount int64, txType string, betID *int) error
	Add(ctx context.Context, userID int, amount int64, txType string, betID *int) error
	BulkRefund(ctx context.Context, userIDs []int, amountEach int64, betID *int) []RefundResult
	Balance(ctx context.Context, userID int) (int64, error)
	LockedPoints(ctx context.Context, userID int) (int64, error)
	PotentialWin(ctx context.Context, userID int) (int64, error)
	GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error)
}
