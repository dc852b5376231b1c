package discount

import (
	"time"
	"storefront_bff/internal/domain/discount/handler"
	"storefront_bff/internal/domain/discount/service"
	"storefront_bff/internal/pkg/config"
	"storefront_bff/internal/pkg/middleware"
	"storefront_bff/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// DiscountModule 折扣模块
type DiscountModule struct{}

func init() {
	registry.Register(&DiscountModule{})
}

func (m *DiscountModule) Name() string {
	return "discount"
}

func (m *DiscountModule) Priority() int {
	return 10
}

func (m *DiscountModule) Init(ctx *registry.ModuleContext) error {
	// 依赖注入
	ttl := time.Duration(config.GlobalConfig.Upstream.CatalogTTL) * time.Second
	dService := service.NewDiscountService(ctx.Upstream, ctx.Sessions, ctx.Cache, ctx.Audit, ctx.Metrics, ttl)
	dHandler := handler.NewDiscountHandler(dService)

	// 路由注册
	setupRoutes(ctx.Router, dHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.DiscountHandler) {
	g := r.Group("/discounts")
	g.Use(middleware.AuthMiddleware())
	{
		g.GET("/catalog", h.Catalog)
		g.POST("/apply", h.Apply)
		g.GET("/applied", h.Current)
		g.DELETE("/applied", h.Remove)
		g.GET("/total", h.Total)
	}
}
