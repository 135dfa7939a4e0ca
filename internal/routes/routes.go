package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carnet-medical-server/internal/config"
	"carnet-medical-server/internal/handlers"
	"carnet-medical-server/internal/middleware"
	"carnet-medical-server/internal/models"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	utilisateurHandler := handlers.NewUtilisateurHandler(db, cfg)
	patientHandler := handlers.NewPatientHandler(db)
	consultationHandler := handlers.NewConsultationHandler(db)
	examenHandler := handlers.NewExamenHandler(db)

	// Uploaded profile photos are served statically
	router.Static("/uploads", cfg.UploadDir)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		private.POST("/auth/logout", authHandler.Logout)

		// Staff administration (admin), plus self-service /me routes open to
		// any authenticated role
		utilisateurRoutes := private.Group("/utilisateurs")
		{
			utilisateurRoutes.GET("/me", utilisateurHandler.GetProfile)
			utilisateurRoutes.PUT("/me", utilisateurHandler.UpdateProfile)
			utilisateurRoutes.PUT("/me/password", utilisateurHandler.ChangePassword)

			adminRoutes := utilisateurRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminRoutes.POST("", utilisateurHandler.Create)
				adminRoutes.GET("", utilisateurHandler.GetAll)
				adminRoutes.GET("/dashboard", utilisateurHandler.Dashboard)
				adminRoutes.PUT("/:id/password", utilisateurHandler.ResetPassword)
				adminRoutes.PUT("/:id", utilisateurHandler.Update)
				adminRoutes.DELETE("/:id", utilisateurHandler.Delete)
			}
		}

		// Patient registration (admin + réceptionniste create/update, broad reads)
		patientRoutes := private.Group("/patients")
		{
			patientRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleReceptionniste), patientHandler.Create)
			patientRoutes.GET("", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleMedecin, models.RoleReceptionniste), patientHandler.GetAll)
			patientRoutes.GET("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleMedecin, models.RoleReceptionniste), patientHandler.GetByID)
			patientRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleReceptionniste), patientHandler.Update)
			patientRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), patientHandler.Delete)
		}

		// Consultation lifecycle
		consultationRoutes := private.Group("/consultations")
		{
			consultationRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleReceptionniste), consultationHandler.Create)
			consultationRoutes.GET("", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleMedecin, models.RoleReceptionniste), consultationHandler.GetAll)
			consultationRoutes.GET("/dashboard", middleware.RoleAuthMiddleware(models.RoleAdmin), consultationHandler.Dashboard)
			consultationRoutes.GET("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleMedecin, models.RoleReceptionniste), consultationHandler.GetByID)
			consultationRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleMedecin, models.RoleAdmin), consultationHandler.Update)
			consultationRoutes.PUT("/:id/statut", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleMedecin), consultationHandler.ChangeStatut)
		}

		// Examen lifecycle: prescription and interpretation are medical acts,
		// result entry is a lab act, reads are clinically broad
		examenRoutes := private.Group("/examens")
		{
			examenRoutes.GET("", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleMedecin, models.RoleReceptionniste, models.RoleLaborantin), examenHandler.GetAll)
			examenRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleMedecin), examenHandler.Prescrire)
			examenRoutes.PUT("/resultats/:id", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleLaborantin), examenHandler.ModifierResultat)
			examenRoutes.GET("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleMedecin, models.RoleLaborantin, models.RoleReceptionniste), examenHandler.GetByID)
			examenRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleMedecin), examenHandler.Modifier)
			examenRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleMedecin), examenHandler.Supprimer)
			examenRoutes.POST("/:id/resultats", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleLaborantin), examenHandler.SaisirResultats)
			examenRoutes.PUT("/:id/interpreter", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleMedecin), examenHandler.Interpreter)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
