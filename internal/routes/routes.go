package routes

import (
	"baytna-backend/internal/config"
	"baytna-backend/internal/handlers"
	"baytna-backend/internal/middleware"
	"baytna-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler, auth *middleware.Authenticator, limiter *middleware.IPRateLimiter, cfg *config.Config) {
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middleware.MetricsMiddleware())

	r.GET("/health", h.Health)
	r.GET("/health/ready", h.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/uploads", cfg.Upload.Dir)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(limiter))
	{
		// Public
		api.POST("/auth/login", h.Login)
		api.GET("/push/vapid-public-key", h.VAPIDPublicKey)

		protected := api.Group("/")
		protected.Use(auth.AuthMiddleware())
		{
			protected.POST("/auth/logout", h.Logout)
			protected.GET("/auth/me", h.Me)
			protected.GET("/dashboard", h.GetDashboard)
			protected.GET("/ws", h.ServeWS)
			protected.POST("/upload", h.UploadImage)

			users := protected.Group("/users")
			users.Use(middleware.RequireCapability(models.CapManageUsers))
			{
				users.GET("", h.ListUsers)
				users.POST("", h.CreateUser)
				users.PATCH("/:id", h.UpdateUser)
				users.DELETE("/:id", h.DeleteUser)
			}

			protected.GET("/drivers", h.ListDrivers)
			protected.GET("/drivers/:id/availability", h.DriverAvailability)

			// Groceries
			protected.GET("/products", h.ListProducts)
			products := protected.Group("/products")
			products.Use(middleware.RequireCapability(models.CapApproveOrders))
			{
				products.POST("", h.CreateProduct)
				products.PATCH("/:id", h.UpdateProduct)
				products.DELETE("/:id", h.DeleteProduct)
			}

			protected.GET("/orders", h.ListOrders)
			protected.POST("/orders", h.CreateOrder)
			protected.GET("/orders/:id", h.GetOrder)
			protected.PATCH("/orders/:id/status", h.UpdateOrderStatus)
			protected.PATCH("/orders/:id/receipt", h.SetOrderReceipt)
			protected.POST("/orders/:id/items", h.AddOrderItem)
			protected.PATCH("/orders/:id/items/:itemId", h.UpdateOrderItem)
			protected.DELETE("/orders/:id/items/:itemId", h.DeleteOrderItem)

			protected.GET("/shortages", h.ListShortages)
			protected.POST("/shortages", middleware.RequireCapability(models.CapAddShortages, models.CapApproveOrders), h.CreateShortage)
			protected.PATCH("/shortages/:id/resolve", middleware.RequireCapability(models.CapApproveOrders), h.ResolveShortage)
			protected.DELETE("/shortages/:id", h.DeleteShortage)

			// Logistics
			protected.GET("/trips", h.ListTrips)
			protected.POST("/trips", h.CreateTrip)
			protected.GET("/trips/:id", h.GetTrip)
			protected.PATCH("/trips/:id", h.UpdateTrip)
			protected.PATCH("/trips/:id/status", h.UpdateTripStatus)
			protected.POST("/trips/:id/cancel", h.CancelTrip)

			fleet := middleware.RequireCapability(models.CapManageFleet)
			protected.GET("/vehicles", h.ListVehicles)
			protected.POST("/vehicles", fleet, h.CreateVehicle)
			protected.PATCH("/vehicles/:id", fleet, h.UpdateVehicle)
			protected.DELETE("/vehicles/:id", fleet, h.DeleteVehicle)

			protected.GET("/technicians", h.ListTechnicians)
			protected.POST("/technicians", fleet, h.CreateTechnician)
			protected.PATCH("/technicians/:id", fleet, h.UpdateTechnician)
			protected.DELETE("/technicians/:id", fleet, h.DeleteTechnician)

			protected.GET("/spare-parts", h.ListSpareParts)
			protected.POST("/spare-parts", fleet, h.CreateSparePart)
			protected.PATCH("/spare-parts/:id", fleet, h.UpdateSparePart)
			protected.DELETE("/spare-parts/:id", fleet, h.DeleteSparePart)

			// Housekeeping
			protected.GET("/rooms", h.ListRooms)
			protected.POST("/rooms", middleware.AdminOnly(), h.CreateRoom)
			protected.PATCH("/rooms/:id", middleware.AdminOnly(), h.UpdateRoom)
			protected.DELETE("/rooms/:id", middleware.AdminOnly(), h.DeleteRoom)

			planners := middleware.RequireRole(models.RoleHousehold)
			protected.GET("/tasks", h.ListTasks)
			protected.POST("/tasks", planners, h.CreateTask)
			protected.PATCH("/tasks/:id", planners, h.UpdateTask)
			protected.PATCH("/tasks/:id/complete", h.CompleteTask)
			protected.DELETE("/tasks/:id", planners, h.DeleteTask)

			protected.GET("/laundry", h.ListLaundry)
			protected.POST("/laundry", h.CreateLaundry)
			protected.PATCH("/laundry/:id/status", middleware.RequireRole(models.RoleMaid), h.UpdateLaundryStatus)

			cooks := middleware.RequireRole(models.RoleHousehold, models.RoleMaid)
			protected.GET("/meals", h.ListMeals)
			protected.POST("/meals", cooks, h.CreateMeal)
			protected.PATCH("/meals/:id", cooks, h.UpdateMeal)
			protected.DELETE("/meals/:id", cooks, h.DeleteMeal)

			// Notifications
			protected.GET("/notifications", h.ListNotifications)
			protected.GET("/notifications/unread-count", h.UnreadCount)
			protected.PATCH("/notifications/:id/read", h.MarkNotificationRead)
			protected.POST("/notifications/read-all", h.MarkAllNotificationsRead)
			protected.POST("/push/subscribe", h.PushSubscribe)
			protected.POST("/push/unsubscribe", h.PushUnsubscribe)
		}
	}
}
