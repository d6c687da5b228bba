package friend

import "context"

type Repository interface {
	Create(ctx context.Context, requesterID, addresseeID int) (*Friendship, error)
	GetByID(ctx context.Context, id int) (*Friendship, error)
	GetBetween(ctx context.Context, userA, userB int) (*Friendship, error)
	UpdateStatus(ctx context.Context, id int, from, to string) error
	Delete(ctx context.Context, id int) error
	ListIncoming(ctx context.Context, userID int) ([]RequestWithUser, error)
	ListFriends(ctx context.Context, userID int) ([]Friend, error)
	AreFriends(ctx context.Context, userA, userB int) (bool, error)
}
