package handler

import (
	"errors"
	"net/http"
	"storefront_bff/internal/domain/checkout/model"
	"storefront_bff/internal/domain/checkout/service"
	discountService "storefront_bff/internal/domain/discount/service"
	"storefront_bff/internal/pkg/session"
	"storefront_bff/internal/pkg/upstream"
	"storefront_bff/pkg/response"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	service service.CheckoutService
}

func NewCheckoutHandler(s service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: s}
}

// ValidateCodeInput 结算内折扣码校验输入
type ValidateCodeInput struct {
	Code string `json:"code"`
}

// Start 用购物车快照开启结算
// @Summary 开启结算向导
// @Tags Checkout
// @Accept json
// @Produce json
// @Param input body model.CartSnapshot true "Cart snapshot"
// @Success 200 {object} response.Response{data=model.State}
// @Router /checkout/start [post]
func (h *CheckoutHandler) Start(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	var cart model.CartSnapshot
	if err := c.ShouldBindJSON(&cart); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	st, err := h.service.Start(c.Request.Context(), sess, cart)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, st)
}

// Get 当前结算状态
func (h *CheckoutHandler) Get(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	st, err := h.service.Get(c.Request.Context(), sess)
	if err != nil {
		h.fail(c, st, err)
		return
	}
	response.Success(c, st)
}

// SetBilling 保存账单信息
func (h *CheckoutHandler) SetBilling(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	var billing model.BillingInfo
	if err := c.ShouldBindJSON(&billing); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	st, err := h.service.SetBilling(c.Request.Context(), sess, billing)
	if err != nil {
		h.fail(c, st, err)
		return
	}
	response.Success(c, st)
}

// SetPaymentMethod 保存支付方式
func (h *CheckoutHandler) SetPaymentMethod(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	var payment model.PaymentDetails
	if err := c.ShouldBindJSON(&payment); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	st, err := h.service.SetPaymentMethod(c.Request.Context(), sess, payment)
	if err != nil {
		h.fail(c, st, err)
		return
	}
	response.Success(c, st)
}

// Next 前进一步
func (h *CheckoutHandler) Next(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	st, err := h.service.Next(c.Request.Context(), sess)
	if err != nil {
		h.fail(c, st, err)
		return
	}
	response.Success(c, st)
}

// Back 后退一步
func (h *CheckoutHandler) Back(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	st, err := h.service.Back(c.Request.Context(), sess)
	if err != nil {
		h.fail(c, st, err)
		return
	}
	response.Success(c, st)
}

// ValidateCode 结算内校验折扣码，更新结算页折扣明细
func (h *CheckoutHandler) ValidateCode(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	var input ValidateCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	st, err := h.service.ValidateCode(c.Request.Context(), sess, input.Code)
	if err != nil {
		if errors.Is(err, discountService.ErrMissingCode) {
			response.Fail(c, response.ErrMissingCode, err.Error())
			return
		}
		h.fail(c, st, err)
		return
	}
	response.Success(c, st)
}

// Submit 提交支付：创建支付 + 处理支付
// @Summary 提交结算
// @Tags Checkout
// @Produce json
// @Success 200 {object} response.Response{data=model.State}
// @Router /checkout/submit [post]
func (h *CheckoutHandler) Submit(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	st, err := h.service.Submit(c.Request.Context(), sess)
	if err != nil {
		h.fail(c, st, err)
		return
	}

	// 提交本身不报错，但可能落在 failed 终态：带上状态让前端可以直接重试
	if st.Step == model.StepFailed {
		response.FailWithData(c, response.ErrPaymentFailed, st.FailureMessage, st)
		return
	}
	response.Success(c, st)
}

// Cancel 放弃结算
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	if err := h.service.Cancel(c.Request.Context(), sess); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, "Checkout cancelled")
}

// fail 把服务层错误翻译成业务响应
func (h *CheckoutHandler) fail(c *gin.Context, st *model.State, err error) {
	switch {
	case errors.Is(err, service.ErrNoCheckout):
		response.Fail(c, response.ErrCheckoutNotFound, err.Error())
	case errors.Is(err, service.ErrProcessing):
		response.Fail(c, response.ErrProcessingInProgress, err.Error())
	case errors.Is(err, service.ErrNotSubmittable):
		response.Fail(c, response.ErrInvalidTransition, err.Error())
	case errors.Is(err, model.ErrBillingIncomplete),
		errors.Is(err, model.ErrCardIncomplete),
		errors.Is(err, model.ErrUnknownMethod):
		response.FailWithData(c, response.ErrStepIncomplete, err.Error(), st)
	case errors.Is(err, model.ErrCannotGoBack),
		errors.Is(err, model.ErrCannotAdvance),
		errors.Is(err, model.ErrTerminalState):
		response.FailWithData(c, response.ErrInvalidTransition, err.Error(), st)
	default:
		var upErr *upstream.Error
		if errors.As(err, &upErr) {
			response.Fail(c, response.ErrPaymentFailed, upErr.Message)
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
	}
}
