package entry

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "ledger-service/internal/domain/entry"
	"ledger-service/internal/domain/user"
	apperrors "ledger-service/pkg/errors"
)

// MockRepository is a testify mock of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entry), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, e *domain.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id int64) (domain.Entry, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Entry), args.Bool(1), args.Error(2)
}

func (m *MockRepository) FindAll(ctx context.Context, c domain.Criteria) ([]domain.Entry, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Entry), args.Error(1)
}

// MockPublisher is a testify mock of Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ev Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func setupTestUsecase(t *testing.T) (*Service, *MockRepository) {
	mockRepo := new(MockRepository)
	uc := New(mockRepo, nil, zaptest.NewLogger(t))
	return uc, mockRepo
}

func newEntry() *domain.Entry {
	return &domain.Entry{
		Description: "salary",
		Month:       2,
		Year:        1990,
		Value:       decimal.NewFromInt(120),
		Type:        domain.TypeIncome,
		User:        &user.User{ID: 1},
	}
}

// ==================== CREATE ====================

func TestCreate_Success(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	in := newEntry()
	saved := *in
	saved.ID = 1
	saved.Status = domain.StatusPending

	mockRepo.On("Save", ctx, in).Return(&saved, nil)

	out, err := uc.Create(ctx, in)

	require.NoError(t, err)
	assert.Equal(t, int64(1), out.ID)
	assert.Equal(t, domain.StatusPending, out.Status)
	mockRepo.AssertExpectations(t)
}

func TestCreate_ValidationError_NeverSaves(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)

	in := newEntry()
	in.Description = "  "

	out, err := uc.Create(context.Background(), in)

	assert.Nil(t, out)
	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, apperrors.MsgInvalidDescription, vErr.Error())
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreate_StoreError(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()
	storeErr := errors.New("connection reset")

	in := newEntry()
	mockRepo.On("Save", ctx, in).Return(nil, storeErr)

	out, err := uc.Create(ctx, in)

	assert.Nil(t, out)
	assert.ErrorIs(t, err, storeErr)
}

func TestCreate_PublishesEvent(t *testing.T) {
	mockRepo := new(MockRepository)
	mockPub := new(MockPublisher)
	uc := New(mockRepo, mockPub, zaptest.NewLogger(t))
	ctx := context.Background()

	in := newEntry()
	saved := *in
	saved.ID = 7
	saved.Status = domain.StatusPending

	mockRepo.On("Save", ctx, in).Return(&saved, nil)
	mockPub.On("Publish", ctx, mock.MatchedBy(func(ev Event) bool {
		return ev.Type == EventCreated && ev.EntryID == 7 && ev.UserID == 1 && ev.Status == domain.StatusPending
	})).Return(nil)

	_, err := uc.Create(ctx, in)

	require.NoError(t, err)
	mockPub.AssertExpectations(t)
}

func TestCreate_PublishFailureDoesNotFail(t *testing.T) {
	mockRepo := new(MockRepository)
	mockPub := new(MockPublisher)
	uc := New(mockRepo, mockPub, zaptest.NewLogger(t))
	ctx := context.Background()

	in := newEntry()
	saved := *in
	saved.ID = 7

	mockRepo.On("Save", ctx, in).Return(&saved, nil)
	mockPub.On("Publish", ctx, mock.Anything).Return(errors.New("broker down"))

	out, err := uc.Create(ctx, in)

	require.NoError(t, err)
	assert.Equal(t, int64(7), out.ID)
}

func TestCreate_UnknownStatus(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)

	in := newEntry()
	in.Status = "DONE"

	_, err := uc.Create(context.Background(), in)

	assert.EqualError(t, err, apperrors.MsgInvalidStatus)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// ==================== UPDATE ====================

func TestUpdate_Success(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	in := newEntry()
	in.ID = 1
	in.Status = domain.StatusPending

	mockRepo.On("Save", ctx, in).Return(in, nil)

	out, err := uc.Update(ctx, in)

	require.NoError(t, err)
	assert.Equal(t, in, out)
	mockRepo.AssertNumberOfCalls(t, "Save", 1)
}

func TestUpdate_NotPersisted(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)

	out, err := uc.Update(context.Background(), newEntry())

	assert.Nil(t, out)
	var pErr *apperrors.PreconditionError
	require.ErrorAs(t, err, &pErr)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUpdate_PreconditionCheckedBeforeValidation(t *testing.T) {
	uc, _ := setupTestUsecase(t)

	_, err := uc.Update(context.Background(), &domain.Entry{})

	var pErr *apperrors.PreconditionError
	assert.ErrorAs(t, err, &pErr)
}

func TestUpdate_ValidationError(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)

	in := newEntry()
	in.ID = 1
	in.Month = 13

	_, err := uc.Update(context.Background(), in)

	assert.EqualError(t, err, apperrors.MsgInvalidMonth)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUpdate_EmptyStatusKeepsStored(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	in := newEntry()
	in.ID = 1

	stored := *newEntry()
	stored.ID = 1
	stored.Status = domain.StatusSettled
	mockRepo.On("FindByID", ctx, int64(1)).Return(stored, true, nil)
	mockRepo.On("Save", ctx, mock.MatchedBy(func(e *domain.Entry) bool {
		return e.Status == domain.StatusSettled
	})).Return(in, nil)

	out, err := uc.Update(ctx, in)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusSettled, out.Status)
	mockRepo.AssertExpectations(t)
}

func TestUpdate_EmptyStatusWithoutStoredRow(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	in := newEntry()
	in.ID = 1
	mockRepo.On("FindByID", ctx, int64(1)).Return(domain.Entry{}, false, nil)
	mockRepo.On("Save", ctx, mock.MatchedBy(func(e *domain.Entry) bool {
		return e.Status == domain.StatusPending
	})).Return(in, nil)

	_, err := uc.Update(ctx, in)

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUpdate_EmptyStatusLookupError(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()
	storeErr := errors.New("db down")

	in := newEntry()
	in.ID = 1
	mockRepo.On("FindByID", ctx, int64(1)).Return(domain.Entry{}, false, storeErr)

	_, err := uc.Update(ctx, in)

	assert.ErrorIs(t, err, storeErr)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUpdate_UnknownStatus(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)

	in := newEntry()
	in.ID = 1
	in.Status = "DONE"

	_, err := uc.Update(context.Background(), in)

	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, apperrors.MsgInvalidStatus, err.Error())
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// ==================== DELETE ====================

func TestDelete_Success(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	in := newEntry()
	in.ID = 1
	mockRepo.On("Delete", ctx, in).Return(nil)

	err := uc.Delete(ctx, in)

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestDelete_NotPersisted(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)

	err := uc.Delete(context.Background(), newEntry())

	var pErr *apperrors.PreconditionError
	require.ErrorAs(t, err, &pErr)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_StoreError(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()
	storeErr := errors.New("timeout")

	in := newEntry()
	in.ID = 3
	mockRepo.On("Delete", ctx, in).Return(storeErr)

	err := uc.Delete(ctx, in)

	assert.ErrorIs(t, err, storeErr)
}

// ==================== SEARCH ====================

func TestSearch_BuildsCriteriaFromFilter(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	stored := []domain.Entry{{ID: 1, Description: "x"}, {ID: 4, Description: "x"}}
	mockRepo.On("FindAll", ctx, domain.Criteria{
		{Field: domain.FieldDescription, Value: "x"},
	}).Return(stored, nil)

	out, err := uc.Search(ctx, domain.Entry{Description: "x"})

	require.NoError(t, err)
	assert.Equal(t, stored, out)
	mockRepo.AssertExpectations(t)
}

func TestSearch_EmptyFilterMatchesEverything(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("FindAll", ctx, domain.Criteria(nil)).Return([]domain.Entry{}, nil)

	out, err := uc.Search(ctx, domain.Entry{})

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSearch_StoreError(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("FindAll", ctx, mock.Anything).Return(nil, errors.New("db down"))

	out, err := uc.Search(ctx, domain.Entry{Year: 2020})

	assert.Error(t, err)
	assert.Nil(t, out)
}

// ==================== UPDATE STATUS ====================

func TestUpdateStatus_Success(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	in := newEntry()
	in.ID = 1
	in.Status = domain.StatusPending

	mockRepo.On("Save", ctx, mock.MatchedBy(func(e *domain.Entry) bool {
		return e.ID == 1 && e.Status == domain.StatusSettled
	})).Return(in, nil)

	out, err := uc.UpdateStatus(ctx, in, domain.StatusSettled)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusSettled, out.Status)
	assert.Equal(t, domain.StatusSettled, in.Status)
	mockRepo.AssertExpectations(t)
}

func TestUpdateStatus_AnyTransitionAllowed(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	in := newEntry()
	in.ID = 1
	in.Status = domain.StatusCanceled

	mockRepo.On("Save", ctx, in).Return(in, nil)

	out, err := uc.UpdateStatus(ctx, in, domain.StatusPending)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, out.Status)
}

func TestUpdateStatus_NotPersisted(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)

	_, err := uc.UpdateStatus(context.Background(), newEntry(), domain.StatusSettled)

	var pErr *apperrors.PreconditionError
	assert.ErrorAs(t, err, &pErr)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)

	in := newEntry()
	in.ID = 1
	in.Status = domain.StatusPending

	for _, status := range []domain.Status{"DONE", ""} {
		out, err := uc.UpdateStatus(context.Background(), in, status)

		assert.Nil(t, out)
		assert.EqualError(t, err, apperrors.MsgInvalidStatus)
		assert.Equal(t, domain.StatusPending, in.Status, "entry left untouched")
	}
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// ==================== GET BY ID ====================

func TestGetByID_Found(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	stored := *newEntry()
	stored.ID = 1
	mockRepo.On("FindByID", ctx, int64(1)).Return(stored, true, nil)

	out, found, err := uc.GetByID(ctx, 1)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, stored, out)
}

func TestGetByID_Absent(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("FindByID", ctx, int64(1)).Return(domain.Entry{}, false, nil)

	_, found, err := uc.GetByID(ctx, 1)

	require.NoError(t, err)
	assert.False(t, found)
}
