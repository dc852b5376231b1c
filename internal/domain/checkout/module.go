package checkout

import (
	"time"

	"storefront_bff/internal/domain/checkout/handler"
	"storefront_bff/internal/domain/checkout/service"
	discountService "storefront_bff/internal/domain/discount/service"
	"storefront_bff/internal/pkg/config"
	"storefront_bff/internal/pkg/middleware"
	"storefront_bff/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CheckoutModule 结算模块
type CheckoutModule struct{}

func init() {
	registry.Register(&CheckoutModule{})
}

func (m *CheckoutModule) Name() string {
	return "checkout"
}

// Priority 在折扣模块之后初始化，结算内校验依赖折扣解析
func (m *CheckoutModule) Priority() int {
	return 20
}

func (m *CheckoutModule) Init(ctx *registry.ModuleContext) error {
	// 依赖注入：结算内折扣码校验复用折扣服务的回退逻辑
	ttl := time.Duration(config.GlobalConfig.Upstream.CatalogTTL) * time.Second
	resolver := discountService.NewDiscountService(ctx.Upstream, ctx.Sessions, ctx.Cache, ctx.Audit, ctx.Metrics, ttl)

	cService := service.NewCheckoutService(
		ctx.Upstream,
		resolver,
		ctx.Sessions,
		config.GlobalConfig.Checkout.Currency,
		config.GlobalConfig.Checkout.DefaultCountry,
	)
	cHandler := handler.NewCheckoutHandler(cService)

	// 路由注册
	setupRoutes(ctx.Router, cHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CheckoutHandler) {
	g := r.Group("/checkout")
	g.Use(middleware.AuthMiddleware())
	{
		g.POST("/start", h.Start)
		g.GET("", h.Get)
		g.PUT("/billing", h.SetBilling)
		g.PUT("/payment-method", h.SetPaymentMethod)
		g.POST("/next", h.Next)
		g.POST("/back", h.Back)
		g.POST("/validate-code", h.ValidateCode)
		g.POST("/submit", h.Submit)
		g.DELETE("", h.Cancel)
	}
}
