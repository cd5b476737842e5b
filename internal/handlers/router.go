package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ITA-F-2025/institute-service/internal/models"
	"github.com/ITA-F-2025/institute-service/internal/repositories"
	"github.com/ITA-F-2025/institute-service/internal/services"
	"github.com/ITA-F-2025/institute-service/internal/utils"
)

type HandlerManager struct {
	authHandler     *AuthHandler
	userHandler     *UserHandler
	categoryHandler *CategoryHandler
	courseHandler   *CourseHandler
	publicHandler   *PublicHandler
	authMiddleware  *JWTAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	userRepo repositories.UserRepository,
	jwtSecret string,
) *HandlerManager {
	authMiddleware := NewJWTAuthMiddleware(userRepo, serviceManager.Auth(), jwtSecret)

	return &HandlerManager{
		authHandler:     NewAuthHandler(serviceManager.Auth(), serviceManager.User(), logger),
		userHandler:     NewUserHandler(serviceManager.User(), logger),
		categoryHandler: NewCategoryHandler(serviceManager.Category(), logger),
		courseHandler:   NewCourseHandler(serviceManager.Course(), serviceManager.Export(), logger),
		publicHandler:   NewPublicHandler(serviceManager.Course(), serviceManager.Category(), logger),
		authMiddleware:  authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Public routes, no authentication
	auth := v1.Group("/auth")
	{
		auth.POST("/login", hm.authHandler.Login)
	}

	catalog := v1.Group("/catalog")
	{
		catalog.GET("/courses", hm.publicHandler.ListCatalog)
		catalog.GET("/courses/:id", hm.publicHandler.GetCatalogCourse)
		catalog.GET("/categories", hm.publicHandler.ListCatalogCategories)
	}

	// Authenticated routes
	authed := v1.Group("")
	authed.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Self-service
		me := authed.Group("/auth")
		{
			me.POST("/logout", hm.authHandler.Logout)
			me.GET("/me", hm.authHandler.GetProfile)
			me.PUT("/me", hm.authHandler.UpdateProfile)
			me.PUT("/password", hm.authHandler.ChangePassword)
		}

		// User management routes
		users := authed.Group("/users")
		{
			// Account creation - Admins and Registrars (service enforces assignable roles)
			users.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin, models.RoleRegistrar), hm.userHandler.CreateUser)

			// Listing and lookup - staff (service scopes Registrar visibility)
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/students", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin, models.RoleRegistrar), hm.userHandler.ListStudents)
			users.GET("/staff", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.ListStaff)
			users.GET("/:id", hm.userHandler.GetUser)

			// Mutations - Admins only
			users.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.UpdateUser)
			users.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.DeleteUser)
			users.POST("/:id/deactivate", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.DeactivateUser)
			users.POST("/:id/activate", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.ActivateUser)
			users.POST("/:id/reset-password", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.ResetPassword)
		}

		// Category routes
		categories := authed.Group("/categories")
		{
			categories.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin, models.RoleAcademic), hm.categoryHandler.CreateCategory)
			categories.GET("", hm.categoryHandler.ListCategories)
			categories.GET("/:id", hm.categoryHandler.GetCategory)
			categories.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin, models.RoleAcademic), hm.categoryHandler.UpdateCategory)
			categories.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin, models.RoleAcademic), hm.categoryHandler.DeleteCategory)
		}

		// Course routes
		courses := authed.Group("/courses")
		{
			// Create/modify courses - Admins and Academic staff only
			courses.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin, models.RoleAcademic), hm.courseHandler.CreateCourse)
			courses.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin, models.RoleAcademic), hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin, models.RoleAcademic), hm.courseHandler.DeleteCourse)
			courses.POST("/:id/toggle-active", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin, models.RoleAcademic), hm.courseHandler.ToggleActive)

			// Prerequisite management - Admins and Academic staff only
			courses.PUT("/:id/prerequisites", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin, models.RoleAcademic), hm.courseHandler.UpdatePrerequisites)
			courses.PUT("/prerequisites/batch", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin, models.RoleAcademic), hm.courseHandler.UpdatePrerequisitesBatch)

			// View courses - staff
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.GET("/:id/enrollments", hm.courseHandler.GetEnrollments)

			// Stats and export - staff
			courses.GET("/statistics", hm.courseHandler.GetStatistics)
			courses.GET("/export", hm.courseHandler.ExportCatalog)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "institute-service",
		})
	})
}
