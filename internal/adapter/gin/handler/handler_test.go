package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"ledger-service/internal/adapter/gin/middleware"
	domainentry "ledger-service/internal/domain/entry"
	domainuser "ledger-service/internal/domain/user"
	"ledger-service/pkg/security"
)

// MockUserUsecase is a mock implementation of user.Usecase
type MockUserUsecase struct {
	mock.Mock
}

func (m *MockUserUsecase) Register(ctx context.Context, u *domainuser.User) (*domainuser.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainuser.User), args.Error(1)
}

func (m *MockUserUsecase) ValidateEmailUnique(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockUserUsecase) Authenticate(ctx context.Context, email, password string) (*domainuser.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainuser.User), args.Error(1)
}

func (m *MockUserUsecase) GetByID(ctx context.Context, id int64) (domainuser.User, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domainuser.User), args.Bool(1), args.Error(2)
}

// MockEntryUsecase is a mock implementation of entry.Usecase
type MockEntryUsecase struct {
	mock.Mock
}

func (m *MockEntryUsecase) Create(ctx context.Context, e *domainentry.Entry) (*domainentry.Entry, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainentry.Entry), args.Error(1)
}

func (m *MockEntryUsecase) Update(ctx context.Context, e *domainentry.Entry) (*domainentry.Entry, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainentry.Entry), args.Error(1)
}

func (m *MockEntryUsecase) Delete(ctx context.Context, e *domainentry.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEntryUsecase) Search(ctx context.Context, filter domainentry.Entry) ([]domainentry.Entry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domainentry.Entry), args.Error(1)
}

func (m *MockEntryUsecase) UpdateStatus(ctx context.Context, e *domainentry.Entry, status domainentry.Status) (*domainentry.Entry, error) {
	args := m.Called(ctx, e, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainentry.Entry), args.Error(1)
}

func (m *MockEntryUsecase) GetByID(ctx context.Context, id int64) (domainentry.Entry, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domainentry.Entry), args.Bool(1), args.Error(2)
}

// staticVerifier accepts the token "valid" as the given user.
type staticVerifier struct {
	userID int64
}

func (v staticVerifier) Verify(token string) (*security.Claims, error) {
	if token != "valid" {
		return nil, security.ErrInvalidToken
	}
	return &security.Claims{UserID: v.userID}, nil
}

func newEngine(t *testing.T, callerID int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth(staticVerifier{userID: callerID}, zap.NewNop()))
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer valid")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp
}
