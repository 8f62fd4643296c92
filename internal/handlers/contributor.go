package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/db"
	"github.com/softdesk-dev/softdesk/internal/authz"
	"github.com/softdesk-dev/softdesk/internal/middleware"
	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/resolve"
	"github.com/softdesk-dev/softdesk/internal/types"
	"github.com/softdesk-dev/softdesk/internal/utils"
	"gorm.io/gorm"
)

// Contributor list access requires project membership; only the project
// author may add or remove entries.
var contributorRules = []authz.Rule{
	authz.IsProjectContributor{},
	authz.IsRelatedProjectAuthor{},
}

type CreateContributorRequest struct {
	// User is the email of the account to enroll.
	User string `json:"user" binding:"required,email"`
	Role string `json:"role"`
}

type ContributorResponse struct {
	ContributorID uint   `json:"contributor_id"`
	User          string `json:"user"`
	UserID        uint   `json:"user_id"`
	ProjectID     uint   `json:"project_id"`
	Permission    string `json:"permission"`
	Role          string `json:"role"`
}

func newContributorResponse(contributor models.Contributor) ContributorResponse {
	return ContributorResponse{
		ContributorID: contributor.ID,
		User:          contributor.User.Email,
		UserID:        contributor.UserID,
		ProjectID:     contributor.ProjectID,
		Permission:    contributor.Permission,
		Role:          contributor.Role,
	}
}

func ListContributors(ctx *gin.Context) {
	userID, err := middleware.CurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := resolve.Project(projectID)

	if err != nil {
		respondResolveError(ctx, err)
		return
	}

	rc := authz.Request{UserID: userID, Method: ctx.Request.Method, Project: project}

	if !authz.Allowed(rc, contributorRules...) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	response := make([]ContributorResponse, 0, len(project.Contributors))

	for _, contributor := range project.Contributors {
		response = append(response, newContributorResponse(contributor))
	}

	ctx.JSON(http.StatusOK, response)
}

// CreateContributor enrolls a user by email. The stored permission is always
// derived from the role; client-supplied permission values are not read.
func CreateContributor(ctx *gin.Context) {
	userID, err := middleware.CurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := resolve.Project(projectID)

	if err != nil {
		respondResolveError(ctx, err)
		return
	}

	rc := authz.Request{UserID: userID, Method: ctx.Request.Method, Project: project}

	if !authz.Allowed(rc, contributorRules...) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	var body CreateContributorRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := body.Role

	if role == "" {
		role = types.RoleCollaborator
	}

	if !types.ValidRole(role) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	var user models.User

	email := strings.ToLower(strings.TrimSpace(body.User))

	if err := db.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "No user with that email"})
			return
		}
		log.Printf("Database error when fetching user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	contributor := models.Contributor{
		UserID:     user.ID,
		ProjectID:  project.ID,
		Role:       role,
		Permission: types.PermissionForRole(role),
	}

	if err := db.DB.Create(&contributor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "User is already a contributor of this project"})
			return
		}
		log.Printf("Failed to create contributor: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contributor"})
		return
	}

	contributor.User = user

	ctx.JSON(http.StatusCreated, newContributorResponse(contributor))
}

func DeleteContributor(ctx *gin.Context) {
	userID, err := middleware.CurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contributorID, err := utils.GetContributorID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := resolve.Project(projectID)

	if err != nil {
		respondResolveError(ctx, err)
		return
	}

	var contributor models.Contributor

	if err := db.DB.Where("id = ? AND project_id = ?", contributorID, project.ID).First(&contributor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Contributor not found"})
			return
		}
		log.Printf("Failed to fetch contributor: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	rc := authz.Request{UserID: userID, Method: ctx.Request.Method, Project: project}

	if !authz.AllowedObject(rc, project, contributorRules...) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	// The author must stay a contributor for the project's lifetime.
	if contributor.UserID == project.AuthorID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "The project author cannot be removed from the contributor list"})
		return
	}

	if err := db.DB.Delete(&contributor).Error; err != nil {
		log.Printf("Failed to delete contributor %d: %v", contributor.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contributor"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Contributor deleted successfully"})
}
