package handlers

import "github.com/gin-gonic/gin"

// Register mounts the API under /api/v1.
func (h *StegoHandler) Register(router gin.IRouter) {
	api := router.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)

		stego := api.Group("/stego")
		{
			stego.POST("/capacity", h.Capacity)
			stego.POST("/encode", h.EncodeFile)
			stego.POST("/decode", h.DecodeFile)
		}
	}
}
