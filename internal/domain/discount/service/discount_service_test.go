package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront_bff/internal/domain/discount/model"
	"storefront_bff/internal/pkg/session"
	"storefront_bff/internal/pkg/upstream"
	"storefront_bff/internal/pkg/worker"
	"storefront_bff/pkg/cache"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockDiscountAPI is a mock of DiscountAPI
type MockDiscountAPI struct {
	mock.Mock
}

func (m *MockDiscountAPI) ListDiscounts(ctx context.Context, token string) ([]upstream.CatalogDiscount, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]upstream.CatalogDiscount), args.Error(1)
}

func (m *MockDiscountAPI) ApplyDiscount(ctx context.Context, token string, req upstream.ApplyDiscountRequest) (*upstream.DiscountOutcome, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upstream.DiscountOutcome), args.Error(1)
}

func (m *MockDiscountAPI) ApplyAssignedDiscount(ctx context.Context, token string, req upstream.ApplyDiscountRequest) (*upstream.DiscountOutcome, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upstream.DiscountOutcome), args.Error(1)
}

// MockSessionStore is a mock of SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) SetJSON(ctx context.Context, sessionID, field string, v interface{}) error {
	args := m.Called(ctx, sessionID, field, v)
	return args.Error(0)
}

func (m *MockSessionStore) GetJSON(ctx context.Context, sessionID, field string, out interface{}) (bool, error) {
	args := m.Called(ctx, sessionID, field, out)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionStore) Delete(ctx context.Context, sessionID, field string) error {
	args := m.Called(ctx, sessionID, field)
	return args.Error(0)
}

func (m *MockSessionStore) AcquireLock(ctx context.Context, sessionID, action string) (bool, error) {
	args := m.Called(ctx, sessionID, action)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionStore) ReleaseLock(ctx context.Context, sessionID, action string) error {
	args := m.Called(ctx, sessionID, action)
	return args.Error(0)
}

// MockAuditSink is a mock of AuditSink
type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) AddTask(task worker.AuditTask) {
	m.Called(task)
}

func testSession() *session.Session {
	return &session.Session{ID: "sess-1", UserID: "user-1", Token: "jwt-token"}
}

func dec(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func newTestService(api DiscountAPI, sessions SessionStore, audit AuditSink) DiscountService {
	return NewDiscountService(api, sessions, cache.NewMemoryCache(), audit, nil, time.Minute)
}

func TestResolveCode(t *testing.T) {
	ctx := context.Background()
	sess := testSession()
	amount := decimal.NewFromInt(100)

	t.Run("Generic code applies without assigned fallback", func(t *testing.T) {
		mockAPI := new(MockDiscountAPI)
		mockSessions := new(MockSessionStore)
		mockAudit := new(MockAuditSink)
		service := newTestService(mockAPI, mockSessions, mockAudit)

		req := upstream.ApplyDiscountRequest{Code: "SAVE10", TotalAmount: amount}
		outcome := &upstream.DiscountOutcome{
			DiscountCode:       "SAVE10",
			DiscountPercentage: decimal.NewFromInt(10),
			DiscountAmount:     decimal.NewFromInt(10),
			OriginalAmount:     decimal.NewFromInt(100),
			FinalAmount:        dec(90),
		}
		mockAPI.On("ApplyDiscount", ctx, sess.Token, req).Return(outcome, nil)
		mockAudit.On("AddTask", mock.AnythingOfType("worker.AuditTask")).Return()

		result, err := service.ResolveCode(ctx, sess, "SAVE10", amount)

		assert.NoError(t, err)
		assert.Equal(t, "SAVE10", result.Code)
		assert.True(t, decimal.NewFromInt(90).Equal(result.FinalAmount))
		mockAPI.AssertNotCalled(t, "ApplyAssignedDiscount", mock.Anything, mock.Anything, mock.Anything)
		mockAPI.AssertExpectations(t)
	})

	t.Run("Falls back to assigned with identical payload", func(t *testing.T) {
		mockAPI := new(MockDiscountAPI)
		mockSessions := new(MockSessionStore)
		mockAudit := new(MockAuditSink)
		service := newTestService(mockAPI, mockSessions, mockAudit)

		req := upstream.ApplyDiscountRequest{Code: "VIP20", TotalAmount: amount}
		outcome := &upstream.DiscountOutcome{
			DiscountCode:   "VIP20",
			DiscountAmount: decimal.NewFromInt(20),
			OriginalAmount: decimal.NewFromInt(100),
			FinalAmount:    dec(80),
		}
		mockAPI.On("ApplyDiscount", ctx, sess.Token, req).Return(nil, errors.New("Invalid discount code"))
		mockAPI.On("ApplyAssignedDiscount", ctx, sess.Token, req).Return(outcome, nil)
		mockAudit.On("AddTask", mock.AnythingOfType("worker.AuditTask")).Return()

		result, err := service.ResolveCode(ctx, sess, "VIP20", amount)

		assert.NoError(t, err)
		assert.True(t, decimal.NewFromInt(80).Equal(result.FinalAmount))
		mockAPI.AssertExpectations(t)
	})

	t.Run("Both resolutions fail returns assigned error", func(t *testing.T) {
		mockAPI := new(MockDiscountAPI)
		mockSessions := new(MockSessionStore)
		mockAudit := new(MockAuditSink)
		service := newTestService(mockAPI, mockSessions, mockAudit)

		req := upstream.ApplyDiscountRequest{Code: "NOPE", TotalAmount: amount}
		genericErr := errors.New("Invalid discount code")
		assignedErr := errors.New("No assigned discount found for this code")
		mockAPI.On("ApplyDiscount", ctx, sess.Token, req).Return(nil, genericErr)
		mockAPI.On("ApplyAssignedDiscount", ctx, sess.Token, req).Return(nil, assignedErr)

		capturedTasks := []worker.AuditTask{}
		mockAudit.On("AddTask", mock.AnythingOfType("worker.AuditTask")).Run(func(args mock.Arguments) {
			capturedTasks = append(capturedTasks, args.Get(0).(worker.AuditTask))
		}).Return()

		result, err := service.ResolveCode(ctx, sess, "NOPE", amount)

		assert.Nil(t, result)
		assert.Equal(t, assignedErr, err)
		// 通用码错误不对外暴露，但要留在审计里
		assert.Len(t, capturedTasks, 1)
		assert.Equal(t, genericErr.Error(), capturedTasks[0].GenericErr)
		assert.Equal(t, assignedErr.Error(), capturedTasks[0].AssignedErr)
		mockAPI.AssertExpectations(t)
	})

	t.Run("Whitespace code fails fast without upstream call", func(t *testing.T) {
		mockAPI := new(MockDiscountAPI)
		mockSessions := new(MockSessionStore)
		mockAudit := new(MockAuditSink)
		service := newTestService(mockAPI, mockSessions, mockAudit)

		result, err := service.ResolveCode(ctx, sess, "   ", amount)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrMissingCode)
		mockAPI.AssertNotCalled(t, "ApplyDiscount", mock.Anything, mock.Anything, mock.Anything)
		mockAPI.AssertNotCalled(t, "ApplyAssignedDiscount", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestApplyCode(t *testing.T) {
	ctx := context.Background()
	sess := testSession()
	amount := decimal.NewFromInt(100)

	t.Run("Successful apply persists session discount", func(t *testing.T) {
		mockAPI := new(MockDiscountAPI)
		mockSessions := new(MockSessionStore)
		mockAudit := new(MockAuditSink)
		service := newTestService(mockAPI, mockSessions, mockAudit)

		req := upstream.ApplyDiscountRequest{Code: "SAVE10", TotalAmount: amount}
		outcome := &upstream.DiscountOutcome{
			DiscountCode:   "SAVE10",
			DiscountAmount: decimal.NewFromInt(10),
			OriginalAmount: decimal.NewFromInt(100),
			FinalAmount:    dec(90),
		}
		mockSessions.On("AcquireLock", ctx, sess.ID, session.LockApplying).Return(true, nil)
		mockSessions.On("ReleaseLock", ctx, sess.ID, session.LockApplying).Return(nil)
		mockAPI.On("ApplyDiscount", ctx, sess.Token, req).Return(outcome, nil)
		mockSessions.On("SetJSON", ctx, sess.ID, session.FieldDiscount, mock.AnythingOfType("*model.DiscountResult")).Return(nil)
		mockAudit.On("AddTask", mock.AnythingOfType("worker.AuditTask")).Return()

		result, err := service.ApplyCode(ctx, sess, "SAVE10", amount)

		assert.NoError(t, err)
		assert.True(t, decimal.NewFromInt(90).Equal(result.FinalAmount))
		mockSessions.AssertExpectations(t)
	})

	t.Run("Concurrent apply rejected while lock held", func(t *testing.T) {
		mockAPI := new(MockDiscountAPI)
		mockSessions := new(MockSessionStore)
		mockAudit := new(MockAuditSink)
		service := newTestService(mockAPI, mockSessions, mockAudit)

		mockSessions.On("AcquireLock", ctx, sess.ID, session.LockApplying).Return(false, nil)

		result, err := service.ApplyCode(ctx, sess, "SAVE10", amount)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrApplyInProgress)
		mockAPI.AssertNotCalled(t, "ApplyDiscount", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Empty code rejected before acquiring lock", func(t *testing.T) {
		mockAPI := new(MockDiscountAPI)
		mockSessions := new(MockSessionStore)
		mockAudit := new(MockAuditSink)
		service := newTestService(mockAPI, mockSessions, mockAudit)

		result, err := service.ApplyCode(ctx, sess, "", amount)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrMissingCode)
		mockSessions.AssertNotCalled(t, "AcquireLock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed resolution leaves session discount untouched", func(t *testing.T) {
		mockAPI := new(MockDiscountAPI)
		mockSessions := new(MockSessionStore)
		mockAudit := new(MockAuditSink)
		service := newTestService(mockAPI, mockSessions, mockAudit)

		req := upstream.ApplyDiscountRequest{Code: "NOPE", TotalAmount: amount}
		mockSessions.On("AcquireLock", ctx, sess.ID, session.LockApplying).Return(true, nil)
		mockSessions.On("ReleaseLock", ctx, sess.ID, session.LockApplying).Return(nil)
		mockAPI.On("ApplyDiscount", ctx, sess.Token, req).Return(nil, errors.New("Invalid discount code"))
		mockAPI.On("ApplyAssignedDiscount", ctx, sess.Token, req).Return(nil, errors.New("No assigned discount"))
		mockAudit.On("AddTask", mock.AnythingOfType("worker.AuditTask")).Return()

		result, err := service.ApplyCode(ctx, sess, "NOPE", amount)

		assert.Nil(t, result)
		assert.Error(t, err)
		mockSessions.AssertNotCalled(t, "SetJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCurrentTotal(t *testing.T) {
	ctx := context.Background()
	sess := testSession()

	t.Run("Returns server final amount verbatim", func(t *testing.T) {
		mockAPI := new(MockDiscountAPI)
		mockSessions := new(MockSessionStore)
		mockAudit := new(MockAuditSink)
		service := newTestService(mockAPI, mockSessions, mockAudit)

		// finalAmount 和 percentage 故意不自洽，总额必须原样采用服务端值
		stored := model.DiscountResult{
			Code:        "SAVE10",
			Percentage:  decimal.NewFromInt(10),
			FinalAmount: decimal.NewFromFloat(87.5),
		}
		mockSessions.On("GetJSON", ctx, sess.ID, session.FieldDiscount, mock.Anything).Run(func(args mock.Arguments) {
			out := args.Get(3).(*model.DiscountResult)
			*out = stored
		}).Return(true, nil)

		total, err := service.CurrentTotal(ctx, sess, decimal.NewFromInt(100))

		assert.NoError(t, err)
		assert.True(t, decimal.NewFromFloat(87.5).Equal(total))
	})

	t.Run("No discount returns original amount", func(t *testing.T) {
		mockAPI := new(MockDiscountAPI)
		mockSessions := new(MockSessionStore)
		mockAudit := new(MockAuditSink)
		service := newTestService(mockAPI, mockSessions, mockAudit)

		mockSessions.On("GetJSON", ctx, sess.ID, session.FieldDiscount, mock.Anything).Return(false, nil)

		total, err := service.CurrentTotal(ctx, sess, decimal.NewFromInt(250))

		assert.NoError(t, err)
		assert.True(t, decimal.NewFromInt(250).Equal(total))
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	sess := testSession()

	t.Run("Remove deletes session discount", func(t *testing.T) {
		mockAPI := new(MockDiscountAPI)
		mockSessions := new(MockSessionStore)
		mockAudit := new(MockAuditSink)
		service := newTestService(mockAPI, mockSessions, mockAudit)

		mockSessions.On("Delete", ctx, sess.ID, session.FieldDiscount).Return(nil)

		err := service.Remove(ctx, sess)

		assert.NoError(t, err)
		mockSessions.AssertExpectations(t)
	})
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	sess := testSession()

	t.Run("Second fetch served from cache", func(t *testing.T) {
		mockAPI := new(MockDiscountAPI)
		mockSessions := new(MockSessionStore)
		mockAudit := new(MockAuditSink)
		service := newTestService(mockAPI, mockSessions, mockAudit)

		list := []upstream.CatalogDiscount{{Code: "SAVE10", Description: "10% off"}}
		mockAPI.On("ListDiscounts", ctx, sess.Token).Return(list, nil).Once()

		first, err := service.Catalog(ctx, sess)
		assert.NoError(t, err)
		assert.Len(t, first, 1)

		second, err := service.Catalog(ctx, sess)
		assert.NoError(t, err)
		assert.Len(t, second, 1)

		mockAPI.AssertNumberOfCalls(t, "ListDiscounts", 1)
	})
}
