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
	"github.com/softdesk-dev/softdesk/internal/utils"
	"gorm.io/gorm"
)

// Comments require project membership; only the parent issue's author may
// open new ones, and only a comment's author may change it.
var commentRules = []authz.Rule{
	authz.IsProjectContributor{},
	authz.IsRelatedIssueAuthor{},
	authz.IsAuthorOrReadOnly{},
}

type CreateCommentRequest struct {
	Description string `json:"description" binding:"required"`
}

type UpdateCommentRequest struct {
	Description string `json:"description" binding:"required"`
}

type CommentResponse struct {
	CommentID    uint      `json:"comment_id"`
	Description  string    `json:"description"`
	AuthorUserID uint      `json:"author_user_id"`
	IssueID      uint      `json:"issue_id"`
	CreatedTime  time.Time `json:"created_time"`
}

func newCommentResponse(comment models.Comment) CommentResponse {
	return CommentResponse{
		CommentID:    comment.ID,
		Description:  comment.Description,
		AuthorUserID: comment.AuthorID,
		IssueID:      comment.IssueID,
		CreatedTime:  comment.CreatedAt,
	}
}

// commentAncestors resolves the project and issue from the path and checks
// the caller against the comment rules. Resolution failures surface before
// any permission check.
func commentAncestors(ctx *gin.Context) (authz.Request, bool) {
	userID, err := middleware.CurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return authz.Request{}, false
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return authz.Request{}, false
	}

	issueID, err := utils.GetIssueID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return authz.Request{}, false
	}

	project, err := resolve.Project(projectID)

	if err != nil {
		respondResolveError(ctx, err)
		return authz.Request{}, false
	}

	issue, err := resolve.ProjectIssue(project.ID, issueID)

	if err != nil {
		respondResolveError(ctx, err)
		return authz.Request{}, false
	}

	return authz.Request{
		UserID:  userID,
		Method:  ctx.Request.Method,
		Project: project,
		Issue:   issue,
	}, true
}

// CreateComment binds the issue from the path; any issue field in the body
// has no effect.
func CreateComment(ctx *gin.Context) {
	rc, ok := commentAncestors(ctx)

	if !ok {
		return
	}

	if !authz.Allowed(rc, commentRules...) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	var body CreateCommentRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment := models.Comment{
		Description: body.Description,
		AuthorID:    rc.UserID,
		IssueID:     rc.Issue.ID,
	}

	if err := db.DB.Create(&comment).Error; err != nil {
		log.Printf("Failed to create comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	ctx.JSON(http.StatusCreated, newCommentResponse(comment))
}

func ListComments(ctx *gin.Context) {
	rc, ok := commentAncestors(ctx)

	if !ok {
		return
	}

	if !authz.Allowed(rc, commentRules...) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	var comments []models.Comment

	if err := db.DB.Where("issue_id = ?", rc.Issue.ID).Order("id").Find(&comments).Error; err != nil {
		log.Printf("Failed to list comments for issue %d: %v", rc.Issue.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comments"})
		return
	}

	response := make([]CommentResponse, 0, len(comments))

	for _, comment := range comments {
		response = append(response, newCommentResponse(comment))
	}

	ctx.JSON(http.StatusOK, response)
}

func getComment(ctx *gin.Context, rc authz.Request) (*models.Comment, bool) {
	commentID, err := utils.GetCommentID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var comment models.Comment

	if err := db.DB.Where("id = ? AND issue_id = ?", commentID, rc.Issue.ID).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
			return nil, false
		}
		log.Printf("Failed to fetch comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}

	return &comment, true
}

func GetComment(ctx *gin.Context) {
	rc, ok := commentAncestors(ctx)

	if !ok {
		return
	}

	comment, ok := getComment(ctx, rc)

	if !ok {
		return
	}

	if !authz.AllowedObject(rc, comment, commentRules...) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	ctx.JSON(http.StatusOK, newCommentResponse(*comment))
}

func UpdateComment(ctx *gin.Context) {
	rc, ok := commentAncestors(ctx)

	if !ok {
		return
	}

	comment, ok := getComment(ctx, rc)

	if !ok {
		return
	}

	if !authz.AllowedObject(rc, comment, commentRules...) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	var body UpdateCommentRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := db.DB.Model(comment).Update("description", body.Description).Error; err != nil {
		log.Printf("Failed to update comment %d: %v", comment.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
		return
	}

	ctx.JSON(http.StatusOK, newCommentResponse(*comment))
}

func DeleteComment(ctx *gin.Context) {
	rc, ok := commentAncestors(ctx)

	if !ok {
		return
	}

	comment, ok := getComment(ctx, rc)

	if !ok {
		return
	}

	if !authz.AllowedObject(rc, comment, commentRules...) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	if err := db.DB.Delete(comment).Error; err != nil {
		log.Printf("Failed to delete comment %d: %v", comment.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
