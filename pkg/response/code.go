package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 认证错误 100xx
	ErrTokenInvalid = 10004

	// 折扣模块错误 300xx
	ErrMissingCode     = 30001
	ErrApplyFailed     = 30002
	ErrApplyInProgress = 30003
	ErrNoDiscount      = 30004

	// 优惠券模块错误 400xx
	ErrVoucherCollect    = 40001
	ErrCollectInProgress = 40002

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
	ErrUpstream        = 50004

	// 结算模块错误 600xx
	ErrCheckoutNotFound     = 60001
	ErrStepIncomplete       = 60002
	ErrInvalidTransition    = 60003
	ErrPaymentFailed        = 60004
	ErrProcessingInProgress = 60005
)
