package friend

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func setupFriendMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func friendshipColumns() []string {
	return []string{"id", "requester_id", "addressee_id", "status", "created_at", "updated_at"}
}

func TestCreateFriendRequest(t *testing.T) {
	repo, mock, close := setupFriendMock(t)
	defer close()

	now := time.Now()

	mock.ExpectQuery("INSERT INTO friendships").
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows(friendshipColumns()).AddRow(7, 1, 2, "pending", now, now))

	f, err := repo.Create(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Equal(t, 7, f.ID)
	require.Equal(t, StatusPending, f.Status)
}

func TestCreateFriendRequest_PairTaken(t *testing.T) {
	repo, mock, close := setupFriendMock(t)
	defer close()

	mock.ExpectQuery("INSERT INTO friendships").
		WithArgs(1, 2).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), 1, 2)
	require.ErrorIs(t, err, ErrRequestExists)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, close := setupFriendMock(t)
	defer close()

	mock.ExpectQuery("SELECT id, requester_id, addressee_id, status, created_at, updated_at FROM friendships WHERE id").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(friendshipColumns()))

	_, err := repo.GetByID(context.Background(), 42)
	require.ErrorIs(t, err, ErrRequestNotFound)
}

func TestUpdateStatus(t *testing.T) {
	repo, mock, close := setupFriendMock(t)
	defer close()

	mock.ExpectExec("UPDATE friendships SET status").
		WithArgs(7, "pending", "accepted").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), 7, StatusPending, StatusAccepted)
	require.NoError(t, err)
}

func TestUpdateStatus_AlreadyAnswered(t *testing.T) {
	repo, mock, close := setupFriendMock(t)
	defer close()

	mock.ExpectExec("UPDATE friendships SET status").
		WithArgs(7, "pending", "accepted").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), 7, StatusPending, StatusAccepted)
	require.ErrorIs(t, err, ErrNotPending)
}

func TestDeleteFriendship_NotFound(t *testing.T) {
	repo, mock, close := setupFriendMock(t)
	defer close()

	mock.ExpectExec("DELETE FROM friendships WHERE id").
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 42)
	require.ErrorIs(t, err, ErrRequestNotFound)
}

func TestListIncoming(t *testing.T) {
	repo, mock, close := setupFriendMock(t)
	defer close()

	now := time.Now()
	columns := append(friendshipColumns(), "requester_name", "requester_email")

	mock.ExpectQuery("FROM friendships f JOIN users u ON u.id = f.requester_id").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(7, 1, 2, "pending", now, now, "Alice", "alice@example.com"))

	requests, err := repo.ListIncoming(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.Equal(t, "Alice", requests[0].RequesterName)
	require.Equal(t, 1, requests[0].RequesterID)
}

func TestListFriends(t *testing.T) {
	repo, mock, close := setupFriendMock(t)
	defer close()

	now := time.Now()

	mock.ExpectQuery("SELECT u.id AS user_id, u.name, u.email, f.updated_at AS since").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "email", "since"}).
			AddRow(2, "Bob", "bob@example.com", now).
			AddRow(3, "Carol", "carol@example.com", now))

	friends, err := repo.ListFriends(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, friends, 2)
	require.Equal(t, "Bob", friends[0].Name)
	require.Equal(t, 3, friends[1].UserID)
}

func TestAreFriends(t *testing.T) {
	repo, mock, close := setupFriendMock(t)
	defer close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.AreFriends(context.Background(), 1, 2)
	require.NoError(t, err)
	require.True(t, ok)
}
