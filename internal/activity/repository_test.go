package activity

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func activityColumns() []string {
	return []string{"id", "user_id", "activity_type", "message", "related_bet_id", "related_user_id", "metadata", "created_at"}
}

func TestRecord(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	betID := 7
	mock.ExpectExec("INSERT INTO activities").
		WithArgs(1, TypeBetWon, "You won", 7, nil, []byte("{}")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Record(context.Background(), &Activity{
		UserID:       1,
		ActivityType: TypeBetWon,
		Message:      "You won",
		RelatedBetID: &betID,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListForUser(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery("SELECT id, user_id, activity_type, message, related_bet_id, related_user_id, metadata, created_at FROM activities").
		WithArgs(1, 50, 0).
		WillReturnRows(sqlmock.NewRows(activityColumns()).
			AddRow(2, 1, TypeBetWon, "You won", 7, nil, []byte("{}"), now).
			AddRow(1, 1, TypeBetCreated, "You created a bet", 7, nil, []byte("{}"), now.Add(-time.Minute)))

	feed, err := repo.ListForUser(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	require.Equal(t, TypeBetWon, feed[0].ActivityType)
	require.NotNil(t, feed[0].RelatedBetID)
	require.Equal(t, 7, *feed[0].RelatedBetID)
}

func TestHasSettlement(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	settled, err := repo.HasSettlement(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, settled)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	settled, err = repo.HasSettlement(context.Background(), 8)
	require.NoError(t, err)
	require.False(t, settled)
}
