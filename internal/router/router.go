package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/internal/handlers"
	"github.com/softdesk-dev/softdesk/internal/middleware"
	"github.com/softdesk-dev/softdesk/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", handlers.HealthCheck)

	users := r.Group("/users")
	{
		users.POST("/signup", handlers.SignUp)
		users.POST("/login", handlers.Login)
		users.GET("", middleware.AuthMiddleware(), middleware.RequireAdmin(), handlers.ListUsers)
	}

	projects := r.Group("/projects", middleware.AuthMiddleware())
	{
		projects.POST("", handlers.CreateProject)
		projects.GET("", handlers.ListProjects)
		projects.GET("/:project_id", handlers.GetProject)
		projects.PUT("/:project_id", handlers.UpdateProject)
		projects.PATCH("/:project_id", handlers.UpdateProject)
		projects.DELETE("/:project_id", handlers.DeleteProject)

		// Contributor endpoints
		projects.POST("/:project_id/users", handlers.CreateContributor)
		projects.GET("/:project_id/users", handlers.ListContributors)
		projects.DELETE("/:project_id/users/:contributor_id", handlers.DeleteContributor)

		// Issue endpoints
		projects.POST("/:project_id/issues", handlers.CreateIssue)
		projects.GET("/:project_id/issues", handlers.ListIssues)
		projects.GET("/:project_id/issues/:issue_id", handlers.GetIssue)
		projects.PUT("/:project_id/issues/:issue_id", handlers.UpdateIssue)
		projects.PATCH("/:project_id/issues/:issue_id", handlers.UpdateIssue)
		projects.DELETE("/:project_id/issues/:issue_id", handlers.DeleteIssue)

		// Comment endpoints
		projects.POST("/:project_id/issues/:issue_id/comments", handlers.CreateComment)
		projects.GET("/:project_id/issues/:issue_id/comments", handlers.ListComments)
		projects.GET("/:project_id/issues/:issue_id/comments/:comment_id", handlers.GetComment)
		projects.PUT("/:project_id/issues/:issue_id/comments/:comment_id", handlers.UpdateComment)
		projects.PATCH("/:project_id/issues/:issue_id/comments/:comment_id", handlers.UpdateComment)
		projects.DELETE("/:project_id/issues/:issue_id/comments/:comment_id", handlers.DeleteComment)
	}

	return r
}
