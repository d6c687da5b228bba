package activity

import "context"

type Repository interface {
	Record(ctx context.Context, a *Activity) error
	ListForUser(ctx context.Context, userID, limit, offset int) ([]Activity, error)
	HasSettlement(ctx context.Context, betID int) (bool, error)
}
