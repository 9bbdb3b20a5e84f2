package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/openlease/lease-ledger/internal/api/middleware"
	"github.com/openlease/lease-ledger/internal/domain"
)

// SetupRoutes configures all REST API routes. Read endpoints are open;
// lease transitions require an authenticated session with the matching role.
func SetupRoutes(router *gin.Engine, h Handler, authCfg middleware.AuthConfig) {
	router.GET("/health", h.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/locations", h.ListLocations)
		v1.GET("/payments", h.ListPayments)
		v1.GET("/payments/last", h.LastPayment)

		authed := v1.Group("")
		authed.Use(middleware.Auth(authCfg))
		{
			authed.GET("/navigation", h.Navigation)
			authed.GET("/locations/my", h.MyLease)
			authed.GET("/locations/:id", h.GetLocation)
			authed.GET("/locations/:id/payments", h.LocationPayments)

			owner := authed.Group("")
			owner.Use(middleware.RequireRole(domain.RoleOwner))
			{
				owner.POST("/locations", h.CreateLocation)
				owner.POST("/locations/:id/tenant", h.AssignTenant)
				owner.DELETE("/locations/:id", h.TerminateLocation)
			}

			tenant := authed.Group("")
			tenant.Use(middleware.RequireRole(domain.RoleTenant))
			{
				tenant.POST("/locations/:id/sign", h.TenantSign)
				tenant.POST("/locations/:id/pay", h.PayRent)
			}
		}
	}
}
