package v1

import (
	"github.com/gin-gonic/gin"

	"creatorhub/media-access/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")
	group.POST("/media/:contentId/access", r.handlers.Access.RequestAccess)
	group.GET("/media/denials", r.handlers.Audit.RecentDenials)
	group.GET("/assets/:contentId/*storageKey", r.handlers.Access.FetchAsset)
}
