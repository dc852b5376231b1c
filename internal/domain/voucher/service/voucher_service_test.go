package service

import (
	"context"
	"errors"
	"testing"

	"storefront_bff/internal/domain/voucher/model"
	"storefront_bff/internal/pkg/session"
	"storefront_bff/internal/pkg/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockVoucherAPI is a mock of VoucherAPI
type MockVoucherAPI struct {
	mock.Mock
}

func (m *MockVoucherAPI) ListAvailableVouchers(ctx context.Context, token string) (*upstream.AvailableVouchers, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upstream.AvailableVouchers), args.Error(1)
}

func (m *MockVoucherAPI) ListMyDiscounts(ctx context.Context, token string) ([]upstream.MyDiscount, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]upstream.MyDiscount), args.Error(1)
}

func (m *MockVoucherAPI) CollectVoucher(ctx context.Context, token, voucherID string) error {
	args := m.Called(ctx, token, voucherID)
	return args.Error(0)
}

func (m *MockVoucherAPI) CollectAllVouchers(ctx context.Context, token, voucherType string) (int, error) {
	args := m.Called(ctx, token, voucherType)
	return args.Int(0), args.Error(1)
}

// MockSessionLocker is a mock of SessionLocker
type MockSessionLocker struct {
	mock.Mock
}

func (m *MockSessionLocker) AcquireLock(ctx context.Context, sessionID, action string) (bool, error) {
	args := m.Called(ctx, sessionID, action)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionLocker) ReleaseLock(ctx context.Context, sessionID, action string) error {
	args := m.Called(ctx, sessionID, action)
	return args.Error(0)
}

func testSession() *session.Session {
	return &session.Session{ID: "sess-1", UserID: "user-1", Token: "jwt-token"}
}

func TestListMine(t *testing.T) {
	ctx := context.Background()
	sess := testSession()

	t.Run("Derives status for each collected voucher", func(t *testing.T) {
		mockAPI := new(MockVoucherAPI)
		mockLocker := new(MockSessionLocker)
		service := NewVoucherService(mockAPI, mockLocker)

		mine := []upstream.MyDiscount{
			{DiscountCode: "ACTIVE10"},
			{DiscountCode: "USED20", IsUsed: true},
			{DiscountCode: "EXPIRED5", IsExpired: true},
		}
		mockAPI.On("ListMyDiscounts", ctx, sess.Token).Return(mine, nil)

		result, err := service.ListMine(ctx, sess)

		assert.NoError(t, err)
		assert.Len(t, result, 3)
		assert.Equal(t, model.StatusActive, result[0].Status)
		assert.Equal(t, model.StatusUsed, result[1].Status)
		assert.Equal(t, model.StatusExpired, result[2].Status)
	})
}

func TestCollectOne(t *testing.T) {
	ctx := context.Background()
	sess := testSession()

	t.Run("Collect refreshes both lists from upstream", func(t *testing.T) {
		mockAPI := new(MockVoucherAPI)
		mockLocker := new(MockSessionLocker)
		service := NewVoucherService(mockAPI, mockLocker)

		available := &upstream.AvailableVouchers{
			ClothesVouchers:  []upstream.Voucher{{ID: "v2", Code: "CLOTHES20"}},
			ShippingVouchers: []upstream.Voucher{},
		}
		mine := []upstream.MyDiscount{{DiscountCode: "CLOTHES15"}}

		mockLocker.On("AcquireLock", ctx, sess.ID, session.LockCollecting).Return(true, nil)
		mockLocker.On("ReleaseLock", ctx, sess.ID, session.LockCollecting).Return(nil)
		mockAPI.On("CollectVoucher", ctx, sess.Token, "v1").Return(nil)
		mockAPI.On("ListAvailableVouchers", ctx, sess.Token).Return(available, nil)
		mockAPI.On("ListMyDiscounts", ctx, sess.Token).Return(mine, nil)

		result, err := service.CollectOne(ctx, sess, "v1")

		assert.NoError(t, err)
		assert.Equal(t, 1, result.CollectedCount)
		assert.Len(t, result.ClothesVouchers, 1)
		assert.Len(t, result.MyVouchers, 1)
		mockAPI.AssertExpectations(t)
	})

	t.Run("Upstream error passed through verbatim", func(t *testing.T) {
		mockAPI := new(MockVoucherAPI)
		mockLocker := new(MockSessionLocker)
		service := NewVoucherService(mockAPI, mockLocker)

		collectErr := errors.New("Voucher already collected")
		mockLocker.On("AcquireLock", ctx, sess.ID, session.LockCollecting).Return(true, nil)
		mockLocker.On("ReleaseLock", ctx, sess.ID, session.LockCollecting).Return(nil)
		mockAPI.On("CollectVoucher", ctx, sess.Token, "v1").Return(collectErr)

		result, err := service.CollectOne(ctx, sess, "v1")

		assert.Nil(t, result)
		assert.Equal(t, collectErr, err)
		mockAPI.AssertNotCalled(t, "ListAvailableVouchers", mock.Anything, mock.Anything)
	})

	t.Run("Rejected while another collect in flight", func(t *testing.T) {
		mockAPI := new(MockVoucherAPI)
		mockLocker := new(MockSessionLocker)
		service := NewVoucherService(mockAPI, mockLocker)

		mockLocker.On("AcquireLock", ctx, sess.ID, session.LockCollecting).Return(false, nil)

		result, err := service.CollectOne(ctx, sess, "v1")

		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrCollectInProgress)
		mockAPI.AssertNotCalled(t, "CollectVoucher", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCollectAll(t *testing.T) {
	ctx := context.Background()
	sess := testSession()

	t.Run("Forwards voucher type filter and returns count", func(t *testing.T) {
		mockAPI := new(MockVoucherAPI)
		mockLocker := new(MockSessionLocker)
		service := NewVoucherService(mockAPI, mockLocker)

		available := &upstream.AvailableVouchers{
			ClothesVouchers:  []upstream.Voucher{},
			ShippingVouchers: []upstream.Voucher{},
		}
		mine := []upstream.MyDiscount{
			{DiscountCode: "SHIP5"},
			{DiscountCode: "SHIP10"},
		}

		mockLocker.On("AcquireLock", ctx, sess.ID, session.LockCollecting).Return(true, nil)
		mockLocker.On("ReleaseLock", ctx, sess.ID, session.LockCollecting).Return(nil)
		mockAPI.On("CollectAllVouchers", ctx, sess.Token, "shipping").Return(2, nil)
		mockAPI.On("ListAvailableVouchers", ctx, sess.Token).Return(available, nil)
		mockAPI.On("ListMyDiscounts", ctx, sess.Token).Return(mine, nil)

		result, err := service.CollectAll(ctx, sess, "shipping")

		assert.NoError(t, err)
		assert.Equal(t, 2, result.CollectedCount)
		assert.Len(t, result.MyVouchers, 2)
		mockAPI.AssertExpectations(t)
	})

	t.Run("Unknown type rejected before lock or upstream call", func(t *testing.T) {
		mockAPI := new(MockVoucherAPI)
		mockLocker := new(MockSessionLocker)
		service := NewVoucherService(mockAPI, mockLocker)

		result, err := service.CollectAll(ctx, sess, "electronics")

		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrUnknownType)
		mockLocker.AssertNotCalled(t, "AcquireLock", mock.Anything, mock.Anything, mock.Anything)
		mockAPI.AssertNotCalled(t, "CollectAllVouchers", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Empty type collects every category", func(t *testing.T) {
		mockAPI := new(MockVoucherAPI)
		mockLocker := new(MockSessionLocker)
		service := NewVoucherService(mockAPI, mockLocker)

		available := &upstream.AvailableVouchers{
			ClothesVouchers:  []upstream.Voucher{},
			ShippingVouchers: []upstream.Voucher{},
		}

		mockLocker.On("AcquireLock", ctx, sess.ID, session.LockCollecting).Return(true, nil)
		mockLocker.On("ReleaseLock", ctx, sess.ID, session.LockCollecting).Return(nil)
		mockAPI.On("CollectAllVouchers", ctx, sess.Token, "").Return(5, nil)
		mockAPI.On("ListAvailableVouchers", ctx, sess.Token).Return(available, nil)
		mockAPI.On("ListMyDiscounts", ctx, sess.Token).Return([]upstream.MyDiscount{}, nil)

		result, err := service.CollectAll(ctx, sess, "")

		assert.NoError(t, err)
		assert.Equal(t, 5, result.CollectedCount)
	})
}
