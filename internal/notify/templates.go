package notify

import (
	"context"
	"fmt"
)

func (s *Service) SendBetInvitation(ctx context.Context, email, name, inviterName, betTitle string, stake int64) error {
	subject := "You've been invited to a bet"
	body := fmt.Sprintf(`Hi %s,

%s invited you to join the bet "%s".

Stake: %d points

Open the app to accept or decline.

- BeFriends`, name, inviterName, betTitle, stake)

	return s.Send(ctx, email, name, subject, body)
}

func (s *Service) SendJoinRequest(ctx context.Context, email, name, requesterName, betTitle string) error {
	subject := "New join request for your bet"
	body := fmt.Sprintf(`Hi %s,

%s wants to join your bet "%s".

Open the app to accept or decline the request.

- BeFriends`, name, requesterName, betTitle)

	return s.Send(ctx, email, name, subject, body)
}

func (s *Service) SendJoinRequestAccepted(ctx context.Context, email, name, betTitle string, stake int64) error {
	subject := "You're in: " + betTitle
	body := fmt.Sprintf(`Hi %s,

Your request to join "%s" was accepted. %d points have been staked from your balance.

Good luck!

- BeFriends`, name, betTitle, stake)

	return s.Send(ctx, email, name, subject, body)
}

func (s *Service) SendFriendRequest(ctx context.Context, email, name, requesterName string) error {
	subject := "New friend request"
	body := fmt.Sprintf(`Hi %s,

%s sent you a friend request.

Open the app to accept or decline.

- BeFriends`, name, requesterName)

	return s.Send(ctx, email, name, subject, body)
}

func (s *Service) SendFriendRequestAccepted(ctx context.Context, email, name, accepterName string) error {
	subject := "Friend request accepted"
	body := fmt.Sprintf(`Hi %s,

%s accepted your friend request. You can now invite each other to bets.

- BeFriends`, name, accepterName)

	return s.Send(ctx, email, name, subject, body)
}

func (s *Service) SendBetWon(ctx context.Context, email, name, betTitle string, winnings int64) error {
	subject := "You won: " + betTitle
	body := fmt.Sprintf(`Hi %s,

The bet "%s" has been settled and you won the pot: %d points.

- BeFriends`, name, betTitle, winnings)

	return s.Send(ctx, email, name, subject, body)
}

func (s *Service) SendBetRefunded(ctx context.Context, email, name, betTitle string, refund int64) error {
	subject := "Bet settled with no winner: " + betTitle
	body := fmt.Sprintf(`Hi %s,

The bet "%s" ended without a unanimous winner. Your stake of %d points has been returned.

- BeFriends`, name, betTitle, refund)

	return s.Send(ctx, email, name, subject, body)
}

func (s *Service) SendBetDeleted(ctx context.Context, email, name, betTitle string, refund int64) error {
	subject := "Bet cancelled: " + betTitle
	body := fmt.Sprintf(`Hi %s,

The bet "%s" was cancelled by its creator. Your stake of %d points has been returned.

- BeFriends`, name, betTitle, refund)

	return s.Send(ctx, email, name, subject, body)
}
