package service

import (
	"context"
	"errors"
	"storefront_bff/internal/domain/voucher/model"
	"storefront_bff/internal/pkg/session"
	"storefront_bff/internal/pkg/upstream"

	"github.com/samber/lo"
)

var (
	ErrCollectInProgress = errors.New("a voucher is already being collected")
	ErrUnknownType       = errors.New("unknown voucher type")
)

// VoucherAPI 上游优惠券接口
type VoucherAPI interface {
	ListAvailableVouchers(ctx context.Context, token string) (*upstream.AvailableVouchers, error)
	ListMyDiscounts(ctx context.Context, token string) ([]upstream.MyDiscount, error)
	CollectVoucher(ctx context.Context, token, voucherID string) error
	CollectAllVouchers(ctx context.Context, token, voucherType string) (int, error)
}

// SessionLocker 动作锁依赖
type SessionLocker interface {
	AcquireLock(ctx context.Context, sessionID, action string) (bool, error)
	ReleaseLock(ctx context.Context, sessionID, action string) error
}

type VoucherService interface {
	ListAvailable(ctx context.Context, sess *session.Session) (*upstream.AvailableVouchers, error)
	ListMine(ctx context.Context, sess *session.Session) ([]model.CollectedVoucher, error)
	CollectOne(ctx context.Context, sess *session.Session, voucherID string) (*model.CollectResult, error)
	CollectAll(ctx context.Context, sess *session.Session, voucherType string) (*model.CollectResult, error)
}

type voucherService struct {
	api     VoucherAPI
	lockers SessionLocker
}

func NewVoucherService(api VoucherAPI, lockers SessionLocker) VoucherService {
	return &voucherService{api: api, lockers: lockers}
}

// ListAvailable 可领优惠券，按类型分组
func (s *voucherService) ListAvailable(ctx context.Context, sess *session.Session) (*upstream.AvailableVouchers, error) {
	return s.api.ListAvailableVouchers(ctx, sess.Token)
}

// ListMine 已领优惠券，带派生状态
func (s *voucherService) ListMine(ctx context.Context, sess *session.Session) ([]model.CollectedVoucher, error) {
	mine, err := s.api.ListMyDiscounts(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	return lo.Map(mine, func(d upstream.MyDiscount, _ int) model.CollectedVoucher {
		return model.FromMyDiscount(d)
	}), nil
}

// CollectOne 领取单张，之后强制刷新双列表保证展示永远是服务端真相
func (s *voucherService) CollectOne(ctx context.Context, sess *session.Session, voucherID string) (*model.CollectResult, error) {
	return s.collect(ctx, sess, func() (int, error) {
		if err := s.api.CollectVoucher(ctx, sess.Token, voucherID); err != nil {
			return 0, err
		}
		return 1, nil
	})
}

// CollectAll 一键领取，voucherType 为空表示不过滤类型
func (s *voucherService) CollectAll(ctx context.Context, sess *session.Session, voucherType string) (*model.CollectResult, error) {
	switch voucherType {
	case "", model.TypeClothes, model.TypeShipping:
	default:
		return nil, ErrUnknownType
	}
	return s.collect(ctx, sess, func() (int, error) {
		return s.api.CollectAllVouchers(ctx, sess.Token, voucherType)
	})
}

func (s *voucherService) collect(ctx context.Context, sess *session.Session, action func() (int, error)) (*model.CollectResult, error) {
	ok, err := s.lockers.AcquireLock(ctx, sess.ID, session.LockCollecting)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCollectInProgress
	}
	defer func() {
		_ = s.lockers.ReleaseLock(ctx, sess.ID, session.LockCollecting)
	}()

	count, err := action()
	if err != nil {
		// 错误文案原样透传 (已领过、已过期等由服务端给出)
		return nil, err
	}

	// 不做乐观更新：领取后重新拉取两个列表
	available, err := s.api.ListAvailableVouchers(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	mine, err := s.ListMine(ctx, sess)
	if err != nil {
		return nil, err
	}

	return &model.CollectResult{
		CollectedCount: count,
		VoucherLists: model.VoucherLists{
			ClothesVouchers:  available.ClothesVouchers,
			ShippingVouchers: available.ShippingVouchers,
			MyVouchers:       mine,
		},
	}, nil
}
