package points

import "time"

const (
	TxTypeStake       = "stake"
	TxTypeWinnings    = "winnings"
	TxTypeRefund      = "refund"
	TxTypeSignupBonus = "signup_bonus"
	TxTypeStakeChange = "stake_change"
)

type Transaction struct {
	ID           int       `db:"id" json:"id"`
	UserID       int       `db:"user_id" json:"user_id"`
	Amount       int64     `db:"amount" json:"amount"`
	TxType       string    `db:"tx_type" json:"tx_type"`
	BalanceAfter int64     `db:"balance_after" json:"balance_after"`
	RelatedBetID *int      `db:"related_bet_id" json:"related_bet_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RefundResult reports the outcome of a single credit within a bulk refund.
// Bulk refunds are best effort: one failed credit never blocks the others.
type RefundResult struct {
	UserID   int    `json:"user_id"`
	Credited bool   `json:"credited"`
	Error    string `json:"error,omitempty"`
}

type Summary struct {
	Balance      int64 `json:"balance"`
	LockedPoints int64 `json:"locked_points"`
	PotentialWin int64 `json:"potential_win"`
}
