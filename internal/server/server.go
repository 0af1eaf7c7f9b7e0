package server

import (
	"fmt"
	"os"

	"github.com/chiapei/trailgo/config"
	"github.com/chiapei/trailgo/internal/ecpay"
	"github.com/chiapei/trailgo/internal/handlers"
	"github.com/chiapei/trailgo/internal/middleware"
	"github.com/chiapei/trailgo/internal/repository"
	"github.com/chiapei/trailgo/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	ecpayCfg, err := config.LoadECPayConfig()
	if err != nil {
		return fmt.Errorf("failed to load ECPay config: %v", err)
	}
	gateway := ecpay.NewClient(ecpay.Config{
		MerchantID:    ecpayCfg.MerchantID,
		HashKey:       ecpayCfg.HashKey,
		HashIV:        ecpayCfg.HashIV,
		CheckoutURL:   ecpayCfg.CheckoutURL,
		ReturnURL:     ecpayCfg.ReturnURL,
		ClientBackURL: ecpayCfg.ClientBackURL,
	})

	r := gin.Default()

	setupRoutes(r, db, gateway)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, gateway service.Gateway) {
	users := repository.NewUserRepository(db)
	activities := repository.NewActivityRepository(db)
	payments := repository.NewPaymentRepository(db)
	tickets := repository.NewTicketRepository(db)

	paymentSvc := service.NewPaymentService(db, gateway, users, activities, payments, tickets)
	ticketSvc := service.NewTicketService(tickets, payments, users)

	paymentHandler := handlers.NewPaymentHandler(paymentSvc)
	ticketHandler := handlers.NewTicketHandler(ticketSvc)
	activityHandler := handlers.NewActivityHandler(activities)

	r.Use(middleware.DatabaseMiddleware(db))

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)
		public.POST("/organizers/login", handlers.OrganizerLogin)

		activityPublic := public.Group("/activities")
		{
			activityPublic.GET("", activityHandler.ListActivities)
			activityPublic.GET("/:id", activityHandler.GetActivity)
		}

		// Gateway-originated settlement callback; authenticated by
		// CheckMacValue, not by JWT.
		public.POST("/payments/result", paymentHandler.PaymentResult)
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		paymentProtected := protected.Group("/payments")
		{
			paymentProtected.POST("/registration", paymentHandler.CreateRegistration)
			paymentProtected.GET("/:id", paymentHandler.GetOrder)
		}

		ticketProtected := protected.Group("/tickets")
		{
			ticketProtected.GET("", ticketHandler.ListMyTickets)
			ticketProtected.GET("/:id/qr", ticketHandler.GetTicketQR)
			ticketProtected.PATCH("/:id/owner", ticketHandler.ReassignTicket)
			ticketProtected.PATCH("/:id/note", ticketHandler.UpdateTicketNote)
		}

		organizerProtected := protected.Group("/tickets")
		organizerProtected.Use(middleware.RequireRole(middleware.RoleOrganizer))
		{
			organizerProtected.GET("/:id", ticketHandler.GetTicket)
			organizerProtected.POST("/:id/confirm", ticketHandler.ConfirmTicket)
			organizerProtected.POST("/validate", ticketHandler.ValidateTicket)
		}
	}
}
