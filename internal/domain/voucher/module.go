package voucher

import (
	"storefront_bff/internal/domain/voucher/handler"
	"storefront_bff/internal/domain/voucher/service"
	"storefront_bff/internal/pkg/middleware"
	"storefront_bff/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// VoucherModule 优惠券模块
type VoucherModule struct{}

func init() {
	registry.Register(&VoucherModule{})
}

func (m *VoucherModule) Name() string {
	return "voucher"
}

func (m *VoucherModule) Priority() int {
	return 10
}

func (m *VoucherModule) Init(ctx *registry.ModuleContext) error {
	vService := service.NewVoucherService(ctx.Upstream, ctx.Sessions)
	vHandler := handler.NewVoucherHandler(vService)

	setupRoutes(ctx.Router, vHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.VoucherHandler) {
	g := r.Group("/vouchers")
	g.Use(middleware.AuthMiddleware())
	{
		g.GET("/available", h.Available)
		g.GET("/mine", h.Mine)
		g.POST("/collect", h.Collect)
		g.POST("/collect-all", h.CollectAll)
	}
}
