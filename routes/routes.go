package routes

import (
	"time"

	"snapbook/handlers"
	"snapbook/middleware"
	"snapbook/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterBookingRoutes sets up the booking lifecycle endpoints.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	bookings := api.Group("/bookings")
	{
		bookings.POST("", middleware.RequireRole(models.RoleClient), hb.Booking.CreateBooking)
		bookings.GET("", hb.Booking.ListBookings)
		bookings.GET("/:id", hb.Booking.GetBooking)
		bookings.POST("/:id/accept", hb.Booking.AcceptBooking)
		bookings.POST("/:id/reject", hb.Booking.RejectBooking)
		bookings.POST("/:id/cancel", hb.Booking.CancelBooking)
		bookings.POST("/:id/complete", hb.Booking.CompleteBooking)
		bookings.POST("/:id/rating", hb.Booking.RateBooking)
		bookings.POST("/:id/photos", middleware.RequireRole(models.RolePhotographer, models.RoleAdmin), hb.Photo.UploadPhoto)
	}
}

// RegisterPhotographerRoutes sets up the live/offline toggle.
func RegisterPhotographerRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	photographers := api.Group("/photographers")
	{
		me := photographers.Group("/me", middleware.RequireRole(models.RolePhotographer))
		me.POST("/live", hb.Photographer.GoLive)
		me.POST("/offline", hb.Photographer.GoOffline)

		photographers.GET("/:id/status", hb.Photographer.GetStatus)
	}
}

// RegisterPhotoRoutes sets up moderation and delivery endpoints.
func RegisterPhotoRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	photos := api.Group("/photos")
	{
		photos.GET("", hb.Photo.ListPhotos)
		photos.GET("/:id", hb.Photo.GetPhoto)
		photos.GET("/:id/download", hb.Photo.DownloadPhoto)
		photos.POST("/bulk/download", hb.Photo.BulkDownload)

		review := photos.Group("", middleware.RequireRole(models.RolePhotographer, models.RoleAdmin))
		review.POST("/:id/approve", hb.Photo.ApprovePhoto)
		review.POST("/:id/reject", hb.Photo.RejectPhoto)
		review.POST("/:id/enhance", hb.Photo.EnhancePhoto)
		review.POST("/bulk/approve", hb.Photo.BulkApprove)
		review.POST("/bulk/reject", hb.Photo.BulkReject)

		photos.PUT("/:id/file", middleware.RequireRole(models.RoleAdmin), hb.Photo.ReplacePhoto)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/photographers/reconcile", hb.Photographer.ReconcileAll)
		admin.POST("/photographers/:id/reconcile", hb.Photographer.Reconcile)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, logger *zap.Logger) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if hb.RateLimiter != nil {
		r.Use(hb.RateLimiter.Middleware(logger))
	}

	r.GET("/health", handlers.HealthHandler(hb.Health))

	api := r.Group("/api", middleware.JWTAuthMiddleware(hb.JWT, logger))
	RegisterBookingRoutes(api, hb)
	RegisterPhotographerRoutes(api, hb)
	RegisterPhotoRoutes(api, hb)
	RegisterAdminRoutes(api, hb)
	api.GET("/geocode", hb.Geocode.ReverseGeocode)
	api.PUT("/devices/token", hb.Device.PutToken)
}
