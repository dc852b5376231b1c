package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"storefront_bff/internal/domain/discount/model"
	"storefront_bff/internal/pkg/session"
	"storefront_bff/internal/pkg/upstream"
	"storefront_bff/internal/pkg/worker"
	"storefront_bff/pkg/cache"
	"storefront_bff/pkg/logger"
	"storefront_bff/pkg/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrMissingCode     = errors.New("please enter a discount code")
	ErrApplyInProgress = errors.New("a discount is already being applied")
)

const catalogCacheKey = "catalog:discounts"

// DiscountAPI 上游折扣接口 (窄接口便于 mock)
type DiscountAPI interface {
	ListDiscounts(ctx context.Context, token string) ([]upstream.CatalogDiscount, error)
	ApplyDiscount(ctx context.Context, token string, req upstream.ApplyDiscountRequest) (*upstream.DiscountOutcome, error)
	ApplyAssignedDiscount(ctx context.Context, token string, req upstream.ApplyDiscountRequest) (*upstream.DiscountOutcome, error)
}

// SessionStore 会话状态依赖
type SessionStore interface {
	SetJSON(ctx context.Context, sessionID, field string, v interface{}) error
	GetJSON(ctx context.Context, sessionID, field string, out interface{}) (bool, error)
	Delete(ctx context.Context, sessionID, field string) error
	AcquireLock(ctx context.Context, sessionID, action string) (bool, error)
	ReleaseLock(ctx context.Context, sessionID, action string) error
}

// AuditSink 异步审计依赖
type AuditSink interface {
	AddTask(task worker.AuditTask)
}

type DiscountService interface {
	Catalog(ctx context.Context, sess *session.Session) ([]upstream.CatalogDiscount, error)
	ApplyCode(ctx context.Context, sess *session.Session, code string, amount decimal.Decimal) (*model.DiscountResult, error)
	ResolveCode(ctx context.Context, sess *session.Session, code string, amount decimal.Decimal) (*model.DiscountResult, error)
	Remove(ctx context.Context, sess *session.Session) error
	Current(ctx context.Context, sess *session.Session) (*model.DiscountResult, error)
	CurrentTotal(ctx context.Context, sess *session.Session, original decimal.Decimal) (decimal.Decimal, error)
}

type discountService struct {
	api        DiscountAPI
	sessions   SessionStore
	cache      cache.CacheService
	audit      AuditSink
	collector  *metrics.MetricsCollector
	catalogTTL time.Duration
}

func NewDiscountService(api DiscountAPI, sessions SessionStore, c cache.CacheService, audit AuditSink, collector *metrics.MetricsCollector, catalogTTL time.Duration) DiscountService {
	return &discountService{
		api:        api,
		sessions:   sessions,
		cache:      c,
		audit:      audit,
		collector:  collector,
		catalogTTL: catalogTTL,
	}
}

// Catalog 折扣目录，短 TTL 缓存
func (s *discountService) Catalog(ctx context.Context, sess *session.Session) ([]upstream.CatalogDiscount, error) {
	var cached []upstream.CatalogDiscount
	if err := s.cache.Get(ctx, catalogCacheKey, &cached); err == nil {
		s.recordCache(true)
		return cached, nil
	}
	s.recordCache(false)

	list, err := s.api.ListDiscounts(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, catalogCacheKey, list, s.catalogTTL); err != nil {
		logger.Log.Warn("failed to cache discount catalog", zap.Error(err))
	}
	return list, nil
}

// ResolveCode 两级回退解析：先按通用码，失败后按专属码重试同样的载荷
// 双双失败时对外只返回专属码那次的错误，通用码错误留在日志和审计里
func (s *discountService) ResolveCode(ctx context.Context, sess *session.Session, code string, amount decimal.Decimal) (*model.DiscountResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrMissingCode
	}

	req := upstream.ApplyDiscountRequest{Code: code, TotalAmount: amount}

	outcome, genericErr := s.api.ApplyDiscount(ctx, sess.Token, req)
	if genericErr == nil {
		s.recordApply("applied_generic")
		s.audit.AddTask(worker.AuditTask{
			SessionID: sess.ID,
			Code:      code,
			Amount:    amount,
			Outcome:   "applied_generic",
			At:        time.Now(),
		})
		return model.FromOutcome(outcome), nil
	}

	outcome, assignedErr := s.api.ApplyAssignedDiscount(ctx, sess.Token, req)
	if assignedErr != nil {
		logger.Log.Info("discount code failed both resolutions",
			zap.String("session", sess.ID),
			zap.String("code", code),
			zap.String("generic_err", genericErr.Error()),
			zap.String("assigned_err", assignedErr.Error()),
		)
		s.recordApply("failed")
		s.audit.AddTask(worker.AuditTask{
			SessionID:   sess.ID,
			Code:        code,
			Amount:      amount,
			GenericErr:  genericErr.Error(),
			AssignedErr: assignedErr.Error(),
			Outcome:     "failed",
			At:          time.Now(),
		})
		return nil, assignedErr
	}

	s.recordApply("applied_assigned")
	s.audit.AddTask(worker.AuditTask{
		SessionID:  sess.ID,
		Code:       code,
		Amount:     amount,
		GenericErr: genericErr.Error(),
		Outcome:    "applied_assigned",
		At:         time.Now(),
	})
	return model.FromOutcome(outcome), nil
}

// ApplyCode 解析折扣码并存为会话当前折扣，替换之前的
func (s *discountService) ApplyCode(ctx context.Context, sess *session.Session, code string, amount decimal.Decimal) (*model.DiscountResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrMissingCode
	}

	ok, err := s.sessions.AcquireLock(ctx, sess.ID, session.LockApplying)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrApplyInProgress
	}
	defer func() {
		if err := s.sessions.ReleaseLock(ctx, sess.ID, session.LockApplying); err != nil {
			logger.Log.Warn("failed to release applying lock", zap.String("session", sess.ID), zap.Error(err))
		}
	}()

	result, err := s.ResolveCode(ctx, sess, code, amount)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.SetJSON(ctx, sess.ID, session.FieldDiscount, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Remove 显式移除当前折扣
func (s *discountService) Remove(ctx context.Context, sess *session.Session) error {
	return s.sessions.Delete(ctx, sess.ID, session.FieldDiscount)
}

// Current 当前已应用折扣，没有则返回 nil
func (s *discountService) Current(ctx context.Context, sess *session.Session) (*model.DiscountResult, error) {
	var result model.DiscountResult
	found, err := s.sessions.GetJSON(ctx, sess.ID, session.FieldDiscount, &result)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &result, nil
}

// CurrentTotal 有折扣时原样返回服务端 finalAmount，否则返回原价
// 这里永远不做百分比运算，金额正确性的唯一来源是服务端
func (s *discountService) CurrentTotal(ctx context.Context, sess *session.Session, original decimal.Decimal) (decimal.Decimal, error) {
	current, err := s.Current(ctx, sess)
	if err != nil {
		return original, err
	}
	if current == nil {
		return original, nil
	}
	return current.FinalAmount, nil
}

func (s *discountService) recordApply(outcome string) {
	if s.collector != nil {
		s.collector.RecordDiscountApply(outcome)
	}
}

func (s *discountService) recordCache(hit bool) {
	if s.collector != nil {
		s.collector.RecordCacheOperation("catalog", hit)
	}
}
