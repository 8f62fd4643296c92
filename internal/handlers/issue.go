package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

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

// Issues require project membership for any access, and authorship for
// mutation.
var issueRules = []authz.Rule{
	authz.IsProjectContributor{},
	authz.IsAuthorOrReadOnly{},
	authz.IsProjectContributorForObject{},
}

type CreateIssueRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Tag         string `json:"tag" binding:"required"`
	Priority    string `json:"priority" binding:"required"`
	Status      string `json:"status" binding:"required"`
	// Assignee is accepted on input only and surfaces as assignee_user_id.
	Assignee *uint `json:"assignee"`
}

type UpdateIssueRequest struct {
	Title string `json:"title"`
	// Description is a pointer so a client can clear it with an explicit "".
	Description *string `json:"description"`
	Tag         string  `json:"tag"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	Assignee    *uint   `json:"assignee"`
}

type IssueResponse struct {
	IssueID        uint              `json:"issue_id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Tag            string            `json:"tag"`
	Priority       string            `json:"priority"`
	ProjectID      uint              `json:"project_id"`
	Status         string            `json:"status"`
	AuthorUserID   uint              `json:"author_user_id"`
	AssigneeUserID *uint             `json:"assignee_user_id"`
	CreatedTime    time.Time         `json:"created_time"`
	Comments       []CommentResponse `json:"comments"`
}

func newIssueResponse(issue models.Issue) IssueResponse {
	comments := make([]CommentResponse, 0, len(issue.Comments))

	for _, comment := range issue.Comments {
		comments = append(comments, newCommentResponse(comment))
	}

	return IssueResponse{
		IssueID:        issue.ID,
		Title:          issue.Title,
		Description:    issue.Description,
		Tag:            issue.Tag,
		Priority:       issue.Priority,
		ProjectID:      issue.ProjectID,
		Status:         issue.Status,
		AuthorUserID:   issue.AuthorID,
		AssigneeUserID: issue.AssigneeID,
		CreatedTime:    issue.CreatedAt,
		Comments:       comments,
	}
}

func validIssueEnums(tag, priority, status string) (string, bool) {
	if tag != "" && !types.ValidTag(tag) {
		return "Invalid tag", false
	}
	if priority != "" && !types.ValidPriority(priority) {
		return "Invalid priority", false
	}
	if status != "" && !types.ValidStatus(status) {
		return "Invalid status", false
	}
	return "", true
}

// ensureContributor enrolls the user as a collaborator unless already a
// member. A duplicate-key failure means a concurrent request enrolled the
// same user first, which satisfies the invariant.
func ensureContributor(tx *gorm.DB, projectID, userID uint) error {
	var existing models.Contributor

	err := tx.Where("user_id = ? AND project_id = ?", userID, projectID).First(&existing).Error

	if err == nil {
		return nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	contributor := models.Contributor{
		UserID:     userID,
		ProjectID:  projectID,
		Role:       types.RoleCollaborator,
		Permission: types.PermissionEdit,
	}

	if err := tx.Create(&contributor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}

	return nil
}

// CreateIssue binds the project from the path; any project field in the body
// has no effect. The assignee defaults to the author and is enrolled as a
// contributor in the same transaction when not yet a member.
func CreateIssue(ctx *gin.Context) {
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

	if !authz.Allowed(rc, issueRules...) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	var body CreateIssueRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if msg, ok := validIssueEnums(body.Tag, body.Priority, body.Status); !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	assigneeID := userID

	if body.Assignee != nil {
		assigneeID = *body.Assignee

		var assignee models.User

		if err := db.DB.First(&assignee, assigneeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee user does not exist"})
				return
			}
			log.Printf("Failed to fetch assignee %d: %v", assigneeID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	issue := models.Issue{
		Title:       body.Title,
		Description: body.Description,
		Tag:         body.Tag,
		Priority:    body.Priority,
		Status:      body.Status,
		ProjectID:   project.ID,
		AuthorID:    userID,
		AssigneeID:  &assigneeID,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := ensureContributor(tx, project.ID, assigneeID); err != nil {
			return err
		}

		return tx.Create(&issue).Error
	})

	if err != nil {
		log.Printf("Failed to create issue: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}

	ctx.JSON(http.StatusCreated, newIssueResponse(issue))
}

func ListIssues(ctx *gin.Context) {
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

	if !authz.Allowed(rc, issueRules...) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	issues, err := projectIssues(project.ID)

	if err != nil {
		log.Printf("Failed to list issues for project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	response := make([]IssueResponse, 0, len(issues))

	for _, issue := range issues {
		response = append(response, newIssueResponse(issue))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetIssue(ctx *gin.Context) {
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

	issueID, err := utils.GetIssueID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := resolve.Project(projectID)

	if err != nil {
		respondResolveError(ctx, err)
		return
	}

	issue, err := resolve.ProjectIssue(project.ID, issueID)

	if err != nil {
		respondResolveError(ctx, err)
		return
	}

	rc := authz.Request{UserID: userID, Method: ctx.Request.Method, Project: project}

	if !authz.AllowedObject(rc, issue, issueRules...) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	if err := db.DB.Preload("Comments").First(issue, issue.ID).Error; err != nil {
		log.Printf("Failed to load comments for issue %d: %v", issue.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		return
	}

	ctx.JSON(http.StatusOK, newIssueResponse(*issue))
}

// UpdateIssue applies a partial update. Project, author, and creation time
// are immutable; a changed assignee is enrolled the same way creation
// enrolls one.
func UpdateIssue(ctx *gin.Context) {
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

	issueID, err := utils.GetIssueID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := resolve.Project(projectID)

	if err != nil {
		respondResolveError(ctx, err)
		return
	}

	issue, err := resolve.ProjectIssue(project.ID, issueID)

	if err != nil {
		respondResolveError(ctx, err)
		return
	}

	rc := authz.Request{UserID: userID, Method: ctx.Request.Method, Project: project}

	if !authz.AllowedObject(rc, issue, issueRules...) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	var body UpdateIssueRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if msg, ok := validIssueEnums(body.Tag, body.Priority, body.Status); !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	updates := make(map[string]interface{})

	if body.Title != "" {
		updates["title"] = body.Title
	}

	if body.Description != nil {
		updates["description"] = *body.Description
	}

	if body.Tag != "" {
		updates["tag"] = body.Tag
	}

	if body.Priority != "" {
		updates["priority"] = body.Priority
	}

	if body.Status != "" {
		updates["status"] = body.Status
	}

	if body.Assignee != nil {
		var assignee models.User

		if err := db.DB.First(&assignee, *body.Assignee).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee user does not exist"})
				return
			}
			log.Printf("Failed to fetch assignee %d: %v", *body.Assignee, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		updates["assignee_id"] = *body.Assignee
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if body.Assignee != nil {
			if err := ensureContributor(tx, project.ID, *body.Assignee); err != nil {
				return err
			}
		}

		return tx.Model(issue).Updates(updates).Error
	})

	if err != nil {
		log.Printf("Failed to update issue %d: %v", issue.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
		return
	}

	if err := db.DB.Preload("Comments").First(issue, issue.ID).Error; err != nil {
		log.Printf("Failed to reload issue %d: %v", issue.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
		return
	}

	ctx.JSON(http.StatusOK, newIssueResponse(*issue))
}

func DeleteIssue(ctx *gin.Context) {
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

	issueID, err := utils.GetIssueID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := resolve.Project(projectID)

	if err != nil {
		respondResolveError(ctx, err)
		return
	}

	issue, err := resolve.ProjectIssue(project.ID, issueID)

	if err != nil {
		respondResolveError(ctx, err)
		return
	}

	rc := authz.Request{UserID: userID, Method: ctx.Request.Method, Project: project}

	if !authz.AllowedObject(rc, issue, issueRules...) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("issue_id = ?", issue.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		return tx.Delete(issue).Error
	})

	if err != nil {
		log.Printf("Failed to delete issue %d: %v", issue.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete issue"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}
