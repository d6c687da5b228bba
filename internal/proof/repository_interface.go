package proof

import "context"

type Repository interface {
	Upsert(ctx context.Context, betID, userID int, imageURL, caption string) (*Proof, error)
	ListForBet(ctx context.Context, betID int) ([]Proof, error)
}
