package api

import (
	"github.com/gin-gonic/gin"
	infragin "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/gin"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// SetupRoutes configures all API routes.
// Health routes are registered by the infrastructure gin builder.
func SetupRoutes(
	router *gin.Engine,
	pages *PageHandler,
	catalog *CatalogHandler,
	gatherer prometheus.Gatherer,
	jwtSecret string,
) {
	router.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))

	router.GET("/pages/:slug", pages.GetSchema)
	router.GET("/pages/:slug/render", pages.RenderPage)

	public, protected := infragin.SetupAPIRoutesWithPublic(router, jwtSecret)
	public.GET("/themes", catalog.ListThemes)
	public.GET("/pages", catalog.ListPages)

	protected.DELETE("/cache/pages", pages.InvalidateAll)
	protected.DELETE("/cache/pages/:slug", pages.InvalidatePage)
}
