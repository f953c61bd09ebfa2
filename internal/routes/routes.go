package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loxigl/Rent-Pro/internal/handlers"
)

// RegisterRoutes wires the public catalog API and the admin API. Admin
// routes sit behind the token check; per-route permission middleware is
// applied inside each handler.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	authMW gin.HandlerFunc,
) {
	ginRouter.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := ginRouter.Group("/api/v1")
	{
		appHandlers.ApartmentHandler.RegisterRoutes(api)
		appHandlers.BookingHandler.RegisterRoutes(api)
		appHandlers.AuthHandler.RegisterRoutes(api, authMW)
	}

	admin := api.Group("/admin")
	admin.Use(authMW)
	{
		appHandlers.AdminApartmentHandler.RegisterRoutes(admin)
		appHandlers.PhotoHandler.RegisterRoutes(admin)
		appHandlers.AdminBookingHandler.RegisterRoutes(admin)
		appHandlers.UserHandler.RegisterRoutes(admin)
		appHandlers.EventHandler.RegisterRoutes(admin)
		appHandlers.SettingsHandler.RegisterRoutes(admin)
	}
}
