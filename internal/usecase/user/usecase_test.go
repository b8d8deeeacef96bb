package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "ledger-service/internal/domain/user"
	apperrors "ledger-service/pkg/errors"
	"ledger-service/pkg/security"
)

// MockRepository is a mock implementation of Repository.
// RunInTx invokes the callback with the mock itself so expectations set on the
// mock apply inside the transaction too.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id int64) (domain.User, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Bool(1), args.Error(2)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Bool(1), args.Error(2)
}

func (m *MockRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) RunInTx(ctx context.Context, fn TxFn) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}

// MockHasher is a mock implementation of PasswordHasher
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Compare(hashed, password string) error {
	args := m.Called(hashed, password)
	return args.Error(0)
}

func setupTestService(t *testing.T) (*Service, *MockRepository, *MockHasher) {
	mockRepo := new(MockRepository)
	mockHasher := new(MockHasher)
	svc := New(mockRepo, mockHasher, zaptest.NewLogger(t))
	return svc, mockRepo, mockHasher
}

// ==================== REGISTER ====================

func TestRegister_Success(t *testing.T) {
	svc, mockRepo, mockHasher := setupTestService(t)
	ctx := context.Background()

	in := &domain.User{Name: "Jose", Email: "jose@email.com", Password: "123"}

	mockHasher.On("Hash", "123").Return("hashed-123", nil)
	mockRepo.On("RunInTx", ctx, mock.Anything).Return(nil)
	mockRepo.On("ExistsByEmail", ctx, "jose@email.com").Return(false, nil)
	mockRepo.On("Save", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "jose@email.com" && u.Password == "hashed-123" && u.ID == 0
	})).Return(&domain.User{ID: 1, Name: "Jose", Email: "jose@email.com", Password: "hashed-123"}, nil)

	out, err := svc.Register(ctx, in)

	require.NoError(t, err)
	assert.Equal(t, int64(1), out.ID)
	assert.Equal(t, "123", in.Password, "caller's user must not be modified")
	mockRepo.AssertExpectations(t)
}

func TestRegister_EmailTaken_NeverSaves(t *testing.T) {
	svc, mockRepo, mockHasher := setupTestService(t)
	ctx := context.Background()

	mockHasher.On("Hash", "123").Return("hashed-123", nil)
	mockRepo.On("RunInTx", ctx, mock.Anything).Return(nil)
	mockRepo.On("ExistsByEmail", ctx, "jose@email.com").Return(true, nil)

	out, err := svc.Register(ctx, &domain.User{Name: "Jose", Email: "jose@email.com", Password: "123"})

	assert.Nil(t, out)
	var ruleErr *apperrors.BusinessRuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, apperrors.MsgEmailTaken, err.Error())
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRegister_StoreUniqueViolation(t *testing.T) {
	svc, mockRepo, mockHasher := setupTestService(t)
	ctx := context.Background()

	mockHasher.On("Hash", "123").Return("hashed-123", nil)
	mockRepo.On("RunInTx", ctx, mock.Anything).Return(nil)
	mockRepo.On("ExistsByEmail", ctx, "jose@email.com").Return(false, nil)
	mockRepo.On("Save", ctx, mock.Anything).Return(nil, fmt.Errorf("failed to save user: %w", domain.ErrEmailTaken))

	_, err := svc.Register(ctx, &domain.User{Email: "jose@email.com", Password: "123"})

	assert.EqualError(t, err, apperrors.MsgEmailTaken)
}

func TestRegister_TransactionError(t *testing.T) {
	svc, mockRepo, mockHasher := setupTestService(t)
	ctx := context.Background()
	txErr := errors.New("failed to begin transaction")

	mockHasher.On("Hash", "123").Return("hashed-123", nil)
	mockRepo.On("RunInTx", ctx, mock.Anything).Return(txErr)

	_, err := svc.Register(ctx, &domain.User{Email: "jose@email.com", Password: "123"})

	assert.ErrorIs(t, err, txErr)
	mockRepo.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
}

func TestRegister_HashError(t *testing.T) {
	svc, mockRepo, mockHasher := setupTestService(t)

	mockHasher.On("Hash", "123").Return("", errors.New("password too long"))

	_, err := svc.Register(context.Background(), &domain.User{Email: "jose@email.com", Password: "123"})

	assert.EqualError(t, err, "failed to hash password: password too long")
	mockRepo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything)
}

func TestRegister_LongMultibytePassword(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := New(mockRepo, security.NewBcryptHasher(security.MinCost), zaptest.NewLogger(t))
	ctx := context.Background()
	password := strings.Repeat("é", 40)

	var stored domain.User
	mockRepo.On("RunInTx", ctx, mock.Anything).Return(nil)
	mockRepo.On("ExistsByEmail", ctx, "long@email.com").Return(false, nil)
	mockRepo.On("Save", ctx, mock.Anything).Run(func(args mock.Arguments) {
		stored = *args.Get(1).(*domain.User)
		stored.ID = 9
	}).Return(&domain.User{ID: 9, Email: "long@email.com"}, nil)

	_, err := svc.Register(ctx, &domain.User{Name: "Long", Email: "long@email.com", Password: password})
	require.NoError(t, err)

	mockRepo.On("FindByEmail", ctx, "long@email.com").Return(stored, true, nil)
	u, err := svc.Authenticate(ctx, "long@email.com", password)
	require.NoError(t, err)
	assert.Equal(t, int64(9), u.ID)
}

// ==================== VALIDATE EMAIL ====================

func TestValidateEmailUnique(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("ExistsByEmail", ctx, "free@email.com").Return(false, nil)
	mockRepo.On("ExistsByEmail", ctx, "taken@email.com").Return(true, nil)

	assert.NoError(t, svc.ValidateEmailUnique(ctx, "free@email.com"))
	assert.EqualError(t, svc.ValidateEmailUnique(ctx, "taken@email.com"), apperrors.MsgEmailTaken)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestValidateEmailUnique_StoreError(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()
	storeErr := errors.New("db down")

	mockRepo.On("ExistsByEmail", ctx, "a@b.com").Return(false, storeErr)

	err := svc.ValidateEmailUnique(ctx, "a@b.com")

	assert.ErrorIs(t, err, storeErr)
}

// ==================== AUTHENTICATE ====================

func TestAuthenticate(t *testing.T) {
	hasher := security.NewBcryptHasher(security.MinCost)
	hashed, err := hasher.Hash("secret")
	require.NoError(t, err)

	stored := domain.User{ID: 1, Name: "A", Email: "a@b.com", Password: hashed}

	tests := []struct {
		name     string
		email    string
		password string
		found    bool
		wantMsg  string
	}{
		{name: "success", email: "a@b.com", password: "secret", found: true},
		{name: "wrong password", email: "a@b.com", password: "other", found: true, wantMsg: apperrors.MsgInvalidPassword},
		{name: "unknown email", email: "x@y.com", password: "secret", found: false, wantMsg: apperrors.MsgUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			svc := New(mockRepo, hasher, zaptest.NewLogger(t))
			ctx := context.Background()

			if tt.found {
				mockRepo.On("FindByEmail", ctx, tt.email).Return(stored, true, nil)
			} else {
				mockRepo.On("FindByEmail", ctx, tt.email).Return(domain.User{}, false, nil)
			}

			u, err := svc.Authenticate(ctx, tt.email, tt.password)

			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, int64(1), u.ID)
				return
			}
			assert.Nil(t, u)
			var authErr *apperrors.AuthenticationError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.wantMsg, authErr.Message)
		})
	}
}

func TestAuthenticate_StoreError(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("FindByEmail", ctx, "a@b.com").Return(domain.User{}, false, errors.New("db down"))

	_, err := svc.Authenticate(ctx, "a@b.com", "secret")

	var authErr *apperrors.AuthenticationError
	assert.Error(t, err)
	assert.False(t, errors.As(err, &authErr))
}

// ==================== GET BY ID ====================

func TestGetByID(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("FindByID", ctx, int64(1)).Return(domain.User{ID: 1, Email: "a@b.com"}, true, nil)
	mockRepo.On("FindByID", ctx, int64(2)).Return(domain.User{}, false, nil)

	u, found, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "a@b.com", u.Email)

	_, found, err = svc.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.False(t, found)
}
