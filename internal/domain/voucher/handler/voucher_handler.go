package handler

import (
	"errors"
	"net/http"
	"storefront_bff/internal/domain/voucher/service"
	"storefront_bff/internal/pkg/session"
	"storefront_bff/internal/pkg/upstream"
	"storefront_bff/pkg/response"

	"github.com/gin-gonic/gin"
)

type VoucherHandler struct {
	service service.VoucherService
}

func NewVoucherHandler(service service.VoucherService) *VoucherHandler {
	return &VoucherHandler{service: service}
}

// CollectInput 领取单张优惠券输入
type CollectInput struct {
	VoucherID string `json:"voucher_id" binding:"required"`
}

// CollectAllInput 一键领取输入，类型可选，取值由服务层校验
type CollectAllInput struct {
	VoucherType string `json:"voucher_type"`
}

// Available 可领优惠券列表
// @Summary 可领优惠券 (按类型分组)
// @Tags Voucher
// @Produce json
// @Success 200 {object} response.Response{data=upstream.AvailableVouchers}
// @Router /vouchers/available [get]
func (h *VoucherHandler) Available(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	list, err := h.service.ListAvailable(c.Request.Context(), sess)
	if err != nil {
		failUpstream(c, err)
		return
	}
	response.Success(c, list)
}

// Mine 已领优惠券列表
func (h *VoucherHandler) Mine(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	mine, err := h.service.ListMine(c.Request.Context(), sess)
	if err != nil {
		failUpstream(c, err)
		return
	}
	response.Success(c, mine)
}

// Collect 领取单张优惠券
// @Summary 领取优惠券
// @Tags Voucher
// @Accept json
// @Produce json
// @Param input body CollectInput true "Voucher ID"
// @Success 200 {object} response.Response{data=model.CollectResult}
// @Router /vouchers/collect [post]
func (h *VoucherHandler) Collect(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	var input CollectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.CollectOne(c.Request.Context(), sess, input.VoucherID)
	if err != nil {
		if errors.Is(err, service.ErrCollectInProgress) {
			response.Fail(c, response.ErrCollectInProgress, err.Error())
			return
		}
		failUpstream(c, err)
		return
	}
	response.Success(c, result)
}

// CollectAll 一键领取
func (h *VoucherHandler) CollectAll(c *gin.Context) {
	sess, ok := session.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Session not found")
		return
	}

	var input CollectAllInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		// 空请求体表示领取全部类型
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.CollectAll(c.Request.Context(), sess, input.VoucherType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCollectInProgress):
			response.Fail(c, response.ErrCollectInProgress, err.Error())
		case errors.Is(err, service.ErrUnknownType):
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		default:
			failUpstream(c, err)
		}
		return
	}
	response.Success(c, result)
}

func failUpstream(c *gin.Context, err error) {
	var upErr *upstream.Error
	if errors.As(err, &upErr) {
		response.Fail(c, response.ErrVoucherCollect, upErr.Message)
		return
	}
	response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
}
