package handlers

import (
	"log"
	"net/http"

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

type CreateProjectRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Type        string `json:"type" binding:"required"`
}

type UpdateProjectRequest struct {
	Title string `json:"title"`
	// Description is a pointer so a client can clear it with an explicit "".
	Description *string `json:"description"`
	Type        string  `json:"type"`
}

type ProjectResponse struct {
	ProjectID    uint                  `json:"project_id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Type         string                `json:"type"`
	AuthorUserID uint                  `json:"author_user_id"`
	Contributors []ContributorResponse `json:"contributors"`
	Issues       []IssueResponse       `json:"issues"`
}

func newProjectResponse(project *models.Project, issues []models.Issue) ProjectResponse {
	contributors := make([]ContributorResponse, 0, len(project.Contributors))

	for _, contributor := range project.Contributors {
		contributors = append(contributors, newContributorResponse(contributor))
	}

	issueResponses := make([]IssueResponse, 0, len(issues))

	for _, issue := range issues {
		issueResponses = append(issueResponses, newIssueResponse(issue))
	}

	return ProjectResponse{
		ProjectID:    project.ID,
		Title:        project.Title,
		Description:  project.Description,
		Type:         project.Type,
		AuthorUserID: project.AuthorID,
		Contributors: contributors,
		Issues:       issueResponses,
	}
}

func projectIssues(projectID uint) ([]models.Issue, error) {
	var issues []models.Issue

	err := db.DB.Preload("Comments").Where("project_id = ?", projectID).Order("id").Find(&issues).Error

	return issues, err
}

// CreateProject inserts the project and enrolls its author as a managing
// contributor in one transaction. A project without its author contributor
// row must never be observable.
func CreateProject(ctx *gin.Context) {
	var body CreateProjectRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !types.ValidProjectType(body.Type) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project type"})
		return
	}

	userID, err := middleware.CurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project := models.Project{
		Title:       body.Title,
		Description: body.Description,
		Type:        body.Type,
		AuthorID:    userID,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		contributor := models.Contributor{
			UserID:     userID,
			ProjectID:  project.ID,
			Role:       types.RoleAuthor,
			Permission: types.PermissionManage,
		}

		return tx.Create(&contributor).Error
	})

	if err != nil {
		log.Printf("Failed to create project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	created, err := resolve.Project(project.ID)

	if err != nil {
		log.Printf("Failed to reload project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	ctx.JSON(http.StatusCreated, newProjectResponse(created, nil))
}

// ListProjects returns only projects the caller contributes to.
func ListProjects(ctx *gin.Context) {
	userID, err := middleware.CurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var projects []models.Project

	err = db.DB.
		Joins("JOIN contributors ON contributors.project_id = projects.id AND contributors.deleted_at IS NULL").
		Where("contributors.user_id = ?", userID).
		Preload("Contributors.User").
		Order("projects.title").
		Find(&projects).Error

	if err != nil {
		log.Printf("Failed to list projects: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectResponse, 0, len(projects))

	for i := range projects {
		issues, err := projectIssues(projects[i].ID)

		if err != nil {
			log.Printf("Failed to load issues for project %d: %v", projects[i].ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
			return
		}

		response = append(response, newProjectResponse(&projects[i], issues))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetProject(ctx *gin.Context) {
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

	if !authz.AllowedObject(rc, project, authz.IsAuthorOrReadOnly{}) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	issues, err := projectIssues(project.ID)

	if err != nil {
		log.Printf("Failed to load issues for project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}

	ctx.JSON(http.StatusOK, newProjectResponse(project, issues))
}

// UpdateProject applies a partial update. Author and creation time are not
// accepted from the payload.
func UpdateProject(ctx *gin.Context) {
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

	if !authz.AllowedObject(rc, project, authz.IsAuthorOrReadOnly{}) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	var body UpdateProjectRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make(map[string]interface{})

	if body.Title != "" {
		updates["title"] = body.Title
	}

	if body.Description != nil {
		updates["description"] = *body.Description
	}

	if body.Type != "" {
		if !types.ValidProjectType(body.Type) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project type"})
			return
		}
		updates["type"] = body.Type
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(project).Updates(updates).Error; err != nil {
		log.Printf("Failed to update project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	issues, err := projectIssues(project.ID)

	if err != nil {
		log.Printf("Failed to load issues for project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	ctx.JSON(http.StatusOK, newProjectResponse(project, issues))
}

// DeleteProject removes the project and everything it owns: comments of its
// issues, the issues, and the contributor rows.
func DeleteProject(ctx *gin.Context) {
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

	if !authz.AllowedObject(rc, project, authz.IsAuthorOrReadOnly{}) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		issueIDs := tx.Model(&models.Issue{}).Select("id").Where("project_id = ?", project.ID)

		if err := tx.Where("issue_id IN (?)", issueIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Issue{}).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Contributor{}).Error; err != nil {
			return err
		}

		return tx.Delete(project).Error
	})

	if err != nil {
		log.Printf("Failed to delete project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// respondResolveError maps ancestor-resolution failures to responses.
// NotFound always wins over permission checks, which never ran.
func respondResolveError(ctx *gin.Context, err error) {
	switch err {
	case resolve.ErrProjectNotFound:
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
	case resolve.ErrIssueNotFound:
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
	default:
		log.Printf("Failed to resolve ancestor: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
