package friend

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/tbordasch/befriends/internal/activity"
	"github.com/tbordasch/befriends/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock repositories
type MockFriendRepo struct{ mock.Mock }
type MockActivityRepo struct{ mock.Mock }
type MockUserRepo struct{ mock.Mock }

func (m *MockFriendRepo) Create(ctx context.Context, requesterID, addresseeID int) (*Friendship, error) {
	args := m.Called(ctx, requesterID, addresseeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Friendship), args.Error(1)
}

func (m *MockFriendRepo) GetByID(ctx context.Context, id int) (*Friendship, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Friendship), args.Error(1)
}

func (m *MockFriendRepo) GetBetween(ctx context.Context, userA, userB int) (*Friendship, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Friendship), args.Error(1)
}

func (m *MockFriendRepo) UpdateStatus(ctx context.Context, id int, from, to string) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *MockFriendRepo) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockFriendRepo) ListIncoming(ctx context.Context, userID int) ([]RequestWithUser, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]RequestWithUser), args.Error(1)
}

func (m *MockFriendRepo) ListFriends(ctx context.Context, userID int) ([]Friend, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Friend), args.Error(1)
}

func (m *MockFriendRepo) AreFriends(ctx context.Context, userA, userB int) (bool, error) {
	args := m.Called(ctx, userA, userB)
	return args.Bool(0), args.Error(1)
}

func (m *MockActivityRepo) Record(ctx context.Context, a *activity.Activity) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockActivityRepo) ListForUser(ctx context.Context, userID, limit, offset int) ([]activity.Activity, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]activity.Activity), args.Error(1)
}

func (m *MockActivityRepo) HasSettlement(ctx context.Context, betID int) (bool, error) {
	args := m.Called(ctx, betID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepo) Create(ctx context.Context, name, email, passwordHash string) (*user.User, error) {
	args := m.Called(ctx, name, email, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepo) SearchByName(ctx context.Context, query string, limit int) ([]user.User, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.User), args.Error(1)
}

func newTestService(repo *MockFriendRepo, activityRepo *MockActivityRepo, userRepo *MockUserRepo) Service {
	return NewService(repo, activityRepo, userRepo, nil)
}

func pairRow(id, requesterID, addresseeID int, status string) *Friendship {
	now := time.Now()
	return &Friendship{
		ID:          id,
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestService_SendRequest(t *testing.T) {
	repo := new(MockFriendRepo)
	activityRepo := new(MockActivityRepo)
	userRepo := new(MockUserRepo)
	svc := newTestService(repo, activityRepo, userRepo)

	userRepo.On("FindByID", mock.Anything, 2).Return(&user.User{ID: 2, Name: "Bob"}, nil)
	repo.On("GetBetween", mock.Anything, 1, 2).Return(nil, sql.ErrNoRows)
	repo.On("Create", mock.Anything, 1, 2).Return(pairRow(7, 1, 2, StatusPending), nil)
	activityRepo.On("Record", mock.Anything, mock.Anything).Return(nil)

	f, err := svc.SendRequest(context.Background(), 1, 2)

	assert.NoError(t, err)
	assert.Equal(t, 7, f.ID)
	assert.Equal(t, StatusPending, f.Status)
	repo.AssertExpectations(t)
}

func TestService_SendRequest_ToSelf(t *testing.T) {
	svc := newTestService(new(MockFriendRepo), new(MockActivityRepo), new(MockUserRepo))

	_, err := svc.SendRequest(context.Background(), 1, 1)

	assert.ErrorIs(t, err, ErrSelfFriend)
}

func TestService_SendRequest_UnknownUser(t *testing.T) {
	repo := new(MockFriendRepo)
	userRepo := new(MockUserRepo)
	svc := newTestService(repo, new(MockActivityRepo), userRepo)

	userRepo.On("FindByID", mock.Anything, 99).Return(nil, user.ErrUserNotFound)

	_, err := svc.SendRequest(context.Background(), 1, 99)

	assert.ErrorIs(t, err, user.ErrUserNotFound)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_SendRequest_AlreadyFriends(t *testing.T) {
	repo := new(MockFriendRepo)
	userRepo := new(MockUserRepo)
	svc := newTestService(repo, new(MockActivityRepo), userRepo)

	userRepo.On("FindByID", mock.Anything, 2).Return(&user.User{ID: 2}, nil)
	repo.On("GetBetween", mock.Anything, 1, 2).Return(pairRow(7, 2, 1, StatusAccepted), nil)

	_, err := svc.SendRequest(context.Background(), 1, 2)

	assert.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestService_SendRequest_AlreadySent(t *testing.T) {
	repo := new(MockFriendRepo)
	userRepo := new(MockUserRepo)
	svc := newTestService(repo, new(MockActivityRepo), userRepo)

	userRepo.On("FindByID", mock.Anything, 2).Return(&user.User{ID: 2}, nil)
	repo.On("GetBetween", mock.Anything, 1, 2).Return(pairRow(7, 1, 2, StatusPending), nil)

	_, err := svc.SendRequest(context.Background(), 1, 2)

	assert.ErrorIs(t, err, ErrRequestAlreadySent)
}

func TestService_SendRequest_IncomingPending(t *testing.T) {
	repo := new(MockFriendRepo)
	userRepo := new(MockUserRepo)
	svc := newTestService(repo, new(MockActivityRepo), userRepo)

	// The other side already asked; answer it instead of mirroring it.
	userRepo.On("FindByID", mock.Anything, 2).Return(&user.User{ID: 2}, nil)
	repo.On("GetBetween", mock.Anything, 1, 2).Return(pairRow(7, 2, 1, StatusPending), nil)

	_, err := svc.SendRequest(context.Background(), 1, 2)

	assert.ErrorIs(t, err, ErrRequestIncoming)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_SendRequest_DeclinedPairRetries(t *testing.T) {
	repo := new(MockFriendRepo)
	activityRepo := new(MockActivityRepo)
	userRepo := new(MockUserRepo)
	svc := newTestService(repo, activityRepo, userRepo)

	// A declined row is replaced so the fresh request carries the new direction.
	userRepo.On("FindByID", mock.Anything, 2).Return(&user.User{ID: 2, Name: "Bob"}, nil)
	repo.On("GetBetween", mock.Anything, 1, 2).Return(pairRow(7, 2, 1, StatusDeclined), nil)
	repo.On("Delete", mock.Anything, 7).Return(nil)
	repo.On("Create", mock.Anything, 1, 2).Return(pairRow(8, 1, 2, StatusPending), nil)
	activityRepo.On("Record", mock.Anything, mock.Anything).Return(nil)

	f, err := svc.SendRequest(context.Background(), 1, 2)

	assert.NoError(t, err)
	assert.Equal(t, 8, f.ID)
	assert.Equal(t, 1, f.RequesterID)
	repo.AssertExpectations(t)
}

func TestService_SendRequest_InsertRace(t *testing.T) {
	repo := new(MockFriendRepo)
	userRepo := new(MockUserRepo)
	svc := newTestService(repo, new(MockActivityRepo), userRepo)

	userRepo.On("FindByID", mock.Anything, 2).Return(&user.User{ID: 2}, nil)
	repo.On("GetBetween", mock.Anything, 1, 2).Return(nil, sql.ErrNoRows)
	repo.On("Create", mock.Anything, 1, 2).Return(nil, ErrRequestExists)

	_, err := svc.SendRequest(context.Background(), 1, 2)

	assert.ErrorIs(t, err, ErrRequestAlreadySent)
}

func TestService_Accept(t *testing.T) {
	repo := new(MockFriendRepo)
	activityRepo := new(MockActivityRepo)
	userRepo := new(MockUserRepo)
	svc := newTestService(repo, activityRepo, userRepo)

	repo.On("GetByID", mock.Anything, 7).Return(pairRow(7, 1, 2, StatusPending), nil)
	repo.On("UpdateStatus", mock.Anything, 7, StatusPending, StatusAccepted).Return(nil)
	activityRepo.On("Record", mock.Anything, mock.Anything).Return(nil)

	err := svc.Accept(context.Background(), 2, 7)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_Accept_NotAddressee(t *testing.T) {
	repo := new(MockFriendRepo)
	svc := newTestService(repo, new(MockActivityRepo), new(MockUserRepo))

	repo.On("GetByID", mock.Anything, 7).Return(pairRow(7, 1, 2, StatusPending), nil)

	err := svc.Accept(context.Background(), 1, 7)

	assert.ErrorIs(t, err, ErrNotAddressee)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Accept_AlreadyAnswered(t *testing.T) {
	repo := new(MockFriendRepo)
	svc := newTestService(repo, new(MockActivityRepo), new(MockUserRepo))

	repo.On("GetByID", mock.Anything, 7).Return(pairRow(7, 1, 2, StatusPending), nil)
	repo.On("UpdateStatus", mock.Anything, 7, StatusPending, StatusAccepted).Return(ErrNotPending)

	err := svc.Accept(context.Background(), 2, 7)

	assert.ErrorIs(t, err, ErrNotPending)
}

func TestService_Decline(t *testing.T) {
	repo := new(MockFriendRepo)
	svc := newTestService(repo, new(MockActivityRepo), new(MockUserRepo))

	repo.On("GetByID", mock.Anything, 7).Return(pairRow(7, 1, 2, StatusPending), nil)
	repo.On("UpdateStatus", mock.Anything, 7, StatusPending, StatusDeclined).Return(nil)

	err := svc.Decline(context.Background(), 2, 7)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_Remove(t *testing.T) {
	repo := new(MockFriendRepo)
	svc := newTestService(repo, new(MockActivityRepo), new(MockUserRepo))

	repo.On("GetBetween", mock.Anything, 1, 2).Return(pairRow(7, 2, 1, StatusAccepted), nil)
	repo.On("Delete", mock.Anything, 7).Return(nil)

	err := svc.Remove(context.Background(), 1, 2)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_Remove_NotFriends(t *testing.T) {
	repo := new(MockFriendRepo)
	svc := newTestService(repo, new(MockActivityRepo), new(MockUserRepo))

	repo.On("GetBetween", mock.Anything, 1, 2).Return(pairRow(7, 1, 2, StatusPending), nil)

	err := svc.Remove(context.Background(), 1, 2)

	assert.ErrorIs(t, err, ErrNotFriends)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestService_Remove_NoRow(t *testing.T) {
	repo := new(MockFriendRepo)
	svc := newTestService(repo, new(MockActivityRepo), new(MockUserRepo))

	repo.On("GetBetween", mock.Anything, 1, 2).Return(nil, sql.ErrNoRows)

	err := svc.Remove(context.Background(), 1, 2)

	assert.ErrorIs(t, err, ErrNotFriends)
}

func TestService_SendRequest_ActivityFailureIsNotFatal(t *testing.T) {
	repo := new(MockFriendRepo)
	activityRepo := new(MockActivityRepo)
	userRepo := new(MockUserRepo)
	svc := newTestService(repo, activityRepo, userRepo)

	userRepo.On("FindByID", mock.Anything, 2).Return(&user.User{ID: 2}, nil)
	repo.On("GetBetween", mock.Anything, 1, 2).Return(nil, sql.ErrNoRows)
	repo.On("Create", mock.Anything, 1, 2).Return(pairRow(7, 1, 2, StatusPending), nil)
	activityRepo.On("Record", mock.Anything, mock.Anything).Return(errors.New("feed down"))

	f, err := svc.SendRequest(context.Background(), 1, 2)

	assert.NoError(t, err)
	assert.Equal(t, 7, f.ID)
}
