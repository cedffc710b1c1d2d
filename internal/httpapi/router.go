package httpapi

import "github.com/gin-gonic/gin"

// SetupRoutes wires spec.md §6's five endpoints onto router, grounded on
// the teacher's router.SetupRoutes(router, services, cfg) shape: one
// gin.RouterGroup per concern, a bearer-guarded admin group for the
// config-reading endpoints and a public group for the self-authenticating
// ones.
func SetupRoutes(router *gin.Engine, svc *Service) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	h := NewHandler(svc)

	authed := router.Group("/")
	authed.Use(RequireBearer(svc.AdminAPIKey))
	authed.GET("/interviews", h.ListInterviews)
	authed.GET("/interviews/:id", h.GetInterview)
	authed.POST("/interviews/:id", h.StartInterview)
	authed.POST("/result", h.Result)

	router.POST("/update", h.Update)
}
