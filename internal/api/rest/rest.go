package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Relay surface the wallet UI depends on (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)
	router.GET("/nonce/:address", handler.GetNonce)
	router.GET("/domain", handler.GetDomain)
	router.POST("/relay", handler.Relay)
	router.POST("/encode", handler.Encode)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Ledger facts (public read access)
		v1.GET("/identities/:address", handler.GetIdentity)
		v1.GET("/institutions/:address", handler.GetInstitution)

		// Operator endpoints (requires authentication)
		admin := v1.Group("/admin", middleware.Auth(authCfg))
		{
			admin.POST("/institutions", handler.AuthorizeInstitution)
			admin.DELETE("/institutions/:address", handler.RevokeInstitution)
			admin.POST("/records/verify", handler.VerifyRecord)
		}
	}
}
