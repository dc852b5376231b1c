package handler

import (
	"errors"
	"net/http"
	"storefront_bff/internal/domain/discount/service"
	"storefront_bff/internal/pkg/session"
	"storefront_bff/internal/pkg/upstream"
	"storefront_bff/pkg/response"
	"storefront_bff/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type DiscountHandler struct {
	service service.DiscountService
}

func NewDiscountHandler(service service.DiscountService) *DiscountHandler {
	return &DiscountHandler{service: service}
}

// ApplyInput 折扣应用输入
type ApplyInput struct {
	Code        string          `json:"code"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Catalog 折扣目录 (本地分页)
// @Summary 折扣目录
// @Tags Discount
// @Produce json
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /discounts/catalog [get]
func (h *DiscountHandler) Catalog(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	var p utils.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	list, err := h.service.Catalog(c.Request.Context(), sess)
	if err != nil {
		failUpstream(c, err, response.ErrUpstream)
		return
	}

	start, end := p.Window(len(list))
	response.Success(c, utils.PageResult{
		List:  list[start:end],
		Total: int64(len(list)),
		Page:  p.Page,
		Limit: p.Limit,
	})
}

// Apply 应用折扣码到当前会话
// @Summary 应用折扣码
// @Tags Discount
// @Accept json
// @Produce json
// @Param input body ApplyInput true "Code and cart total"
// @Success 200 {object} response.Response{data=model.DiscountResult}
// @Router /discounts/apply [post]
func (h *DiscountHandler) Apply(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	var input ApplyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.ApplyCode(c.Request.Context(), sess, input.Code, input.TotalAmount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCode):
			response.Fail(c, response.ErrMissingCode, err.Error())
		case errors.Is(err, service.ErrApplyInProgress):
			response.Fail(c, response.ErrApplyInProgress, err.Error())
		default:
			failUpstream(c, err, response.ErrApplyFailed)
		}
		return
	}

	response.Success(c, result)
}

// Remove 移除当前折扣
func (h *DiscountHandler) Remove(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	if err := h.service.Remove(c.Request.Context(), sess); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, "Discount removed")
}

// Current 当前折扣
func (h *DiscountHandler) Current(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	current, err := h.service.Current(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	if current == nil {
		response.Fail(c, response.ErrNoDiscount, "No discount applied")
		return
	}
	response.Success(c, current)
}

// Total 折扣后的总价
// original 由前端传入，有折扣时返回服务端给的 finalAmount
func (h *DiscountHandler) Total(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	original, err := decimal.NewFromString(c.DefaultQuery("original", "0"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid original amount")
		return
	}

	total, err := h.service.CurrentTotal(c.Request.Context(), sess, original)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, gin.H{
		"original": original,
		"total":    total,
	})
}

// failUpstream 统一翻译上游失败：带上服务端文案，业务码按调用方给定
func failUpstream(c *gin.Context, err error, code int) {
	var upErr *upstream.Error
	if errors.As(err, &upErr) {
		response.Fail(c, code, upErr.Message)
		return
	}
	response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
}
