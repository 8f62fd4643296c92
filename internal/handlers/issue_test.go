package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/db"
	"github.com/softdesk-dev/softdesk/internal/handlers"
	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIssueDefaultsAssigneeToAuthor(t *testing.T) {
	r := setupTest(t)
	userA, tokenA := createUser(t, "a@example.com", false)

	project := createProject(t, r, tokenA, "X")
	issue := createIssue(t, r, tokenA, project.ProjectID, nil)

	require.NotNil(t, issue.AssigneeUserID)
	assert.Equal(t, userA.ID, *issue.AssigneeUserID)
	assert.Equal(t, userA.ID, issue.AuthorUserID)

	// The author was already a contributor, so no new row appears.
	var count int64
	require.NoError(t, db.DB.Model(&models.Contributor{}).
		Where("project_id = ?", project.ProjectID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateIssueEnrollsAssignee(t *testing.T) {
	r := setupTest(t)
	userA, tokenA := createUser(t, "a@example.com", false)
	userC, _ := createUser(t, "c@example.com", false)

	project := createProject(t, r, tokenA, "X")
	issue := createIssue(t, r, tokenA, project.ProjectID, gin.H{"assignee": userC.ID})

	require.NotNil(t, issue.AssigneeUserID)
	assert.Equal(t, userC.ID, *issue.AssigneeUserID)

	var contributor models.Contributor
	require.NoError(t, db.DB.
		Where("user_id = ? AND project_id = ?", userC.ID, project.ProjectID).
		First(&contributor).Error)
	assert.Equal(t, types.RoleCollaborator, contributor.Role)
	assert.Equal(t, types.PermissionEdit, contributor.Permission)

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/projects/%d/users", project.ProjectID), tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)

	contributors := decode[[]handlers.ContributorResponse](t, w)
	require.Len(t, contributors, 2)

	ids := []uint{contributors[0].UserID, contributors[1].UserID}
	assert.Contains(t, ids, userA.ID)
	assert.Contains(t, ids, userC.ID)
}

func TestCreateIssueUnknownAssignee(t *testing.T) {
	r := setupTest(t)
	_, tokenA := createUser(t, "a@example.com", false)

	project := createProject(t, r, tokenA, "X")

	w := doRequest(t, r, http.MethodPost, fmt.Sprintf("/projects/%d/issues", project.ProjectID), tokenA, gin.H{
		"title":    "bug1",
		"tag":      types.TagBug,
		"priority": types.PriorityLow,
		"status":   types.StatusToDo,
		"assignee": 9999,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateIssueInvalidEnums(t *testing.T) {
	r := setupTest(t)
	_, tokenA := createUser(t, "a@example.com", false)

	project := createProject(t, r, tokenA, "X")
	path := fmt.Sprintf("/projects/%d/issues", project.ProjectID)

	tests := []struct {
		name string
		body gin.H
	}{
		{"bad tag", gin.H{"title": "x", "tag": "FEATURE", "priority": types.PriorityLow, "status": types.StatusToDo}},
		{"bad priority", gin.H{"title": "x", "tag": types.TagBug, "priority": "URGENT", "status": types.StatusToDo}},
		{"bad status", gin.H{"title": "x", "tag": types.TagBug, "priority": types.PriorityLow, "status": "Done"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, r, http.MethodPost, path, tokenA, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestIssueProjectBoundFromPath(t *testing.T) {
	r := setupTest(t)
	_, tokenA := createUser(t, "a@example.com", false)

	project := createProject(t, r, tokenA, "X")

	// A project field in the body has no effect.
	issue := createIssue(t, r, tokenA, project.ProjectID, gin.H{"project": 9999})
	assert.Equal(t, project.ProjectID, issue.ProjectID)
}

func TestListIssuesRequiresMembership(t *testing.T) {
	r := setupTest(t)
	_, tokenA := createUser(t, "a@example.com", false)
	_, tokenB := createUser(t, "b@example.com", false)

	project := createProject(t, r, tokenA, "X")
	createIssue(t, r, tokenA, project.ProjectID, nil)

	path := fmt.Sprintf("/projects/%d/issues", project.ProjectID)

	// The project exists, so a non-member gets a denial, not NotFound.
	w := doRequest(t, r, http.MethodGet, path, tokenB, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, r, http.MethodGet, path, tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)

	issues := decode[[]handlers.IssueResponse](t, w)
	assert.Len(t, issues, 1)
}

func TestIssuesUnderMissingProject(t *testing.T) {
	r := setupTest(t)
	_, tokenB := createUser(t, "b@example.com", false)

	w := doRequest(t, r, http.MethodGet, "/projects/9999/issues", tokenB, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetIssueScopedToProject(t *testing.T) {
	r := setupTest(t)
	_, tokenA := createUser(t, "a@example.com", false)

	projectOne := createProject(t, r, tokenA, "one")
	projectTwo := createProject(t, r, tokenA, "two")
	issue := createIssue(t, r, tokenA, projectOne.ProjectID, nil)

	// The issue exists, but not under this project.
	w := doRequest(t, r, http.MethodGet,
		fmt.Sprintf("/projects/%d/issues/%d", projectTwo.ProjectID, issue.IssueID), tokenA, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, http.MethodGet,
		fmt.Sprintf("/projects/%d/issues/%d", projectOne.ProjectID, issue.IssueID), tokenA, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateIssuePartial(t *testing.T) {
	r := setupTest(t)
	_, tokenA := createUser(t, "a@example.com", false)

	project := createProject(t, r, tokenA, "X")
	issue := createIssue(t, r, tokenA, project.ProjectID, nil)

	w := doRequest(t, r, http.MethodPatch,
		fmt.Sprintf("/projects/%d/issues/%d", project.ProjectID, issue.IssueID),
		tokenA, gin.H{"status": types.StatusInProgress})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decode[handlers.IssueResponse](t, w)
	assert.Equal(t, types.StatusInProgress, updated.Status)
	assert.Equal(t, issue.Title, updated.Title)
	assert.Equal(t, issue.Tag, updated.Tag)
	assert.Equal(t, issue.AuthorUserID, updated.AuthorUserID)
	assert.Equal(t, issue.ProjectID, updated.ProjectID)
	assert.WithinDuration(t, issue.CreatedTime, updated.CreatedTime, time.Second)
}

func TestUpdateIssueClearsDescription(t *testing.T) {
	r := setupTest(t)
	_, tokenA := createUser(t, "a@example.com", false)

	project := createProject(t, r, tokenA, "X")
	issue := createIssue(t, r, tokenA, project.ProjectID, gin.H{"description": "stale repro steps"})
	require.Equal(t, "stale repro steps", issue.Description)

	w := doRequest(t, r, http.MethodPatch,
		fmt.Sprintf("/projects/%d/issues/%d", project.ProjectID, issue.IssueID),
		tokenA, gin.H{"description": ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decode[handlers.IssueResponse](t, w)
	assert.Empty(t, updated.Description)
	assert.Equal(t, issue.Title, updated.Title)
}

func TestUpdateIssueAuthorOnly(t *testing.T) {
	r := setupTest(t)
	_, tokenA := createUser(t, "a@example.com", false)
	userC, tokenC := createUser(t, "c@example.com", false)

	project := createProject(t, r, tokenA, "X")
	issue := createIssue(t, r, tokenA, project.ProjectID, gin.H{"assignee": userC.ID})

	// C is a contributor (enrolled as assignee) but not the issue author.
	w := doRequest(t, r, http.MethodPatch,
		fmt.Sprintf("/projects/%d/issues/%d", project.ProjectID, issue.IssueID),
		tokenC, gin.H{"status": types.StatusCompleted})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateIssueAssigneeEnrolls(t *testing.T) {
	r := setupTest(t)
	_, tokenA := createUser(t, "a@example.com", false)
	userD, _ := createUser(t, "d@example.com", false)

	project := createProject(t, r, tokenA, "X")
	issue := createIssue(t, r, tokenA, project.ProjectID, nil)

	w := doRequest(t, r, http.MethodPatch,
		fmt.Sprintf("/projects/%d/issues/%d", project.ProjectID, issue.IssueID),
		tokenA, gin.H{"assignee": userD.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decode[handlers.IssueResponse](t, w)
	require.NotNil(t, updated.AssigneeUserID)
	assert.Equal(t, userD.ID, *updated.AssigneeUserID)

	var contributor models.Contributor
	require.NoError(t, db.DB.
		Where("user_id = ? AND project_id = ?", userD.ID, project.ProjectID).
		First(&contributor).Error)
	assert.Equal(t, types.RoleCollaborator, contributor.Role)
}

func TestDeleteIssueRemovesComments(t *testing.T) {
	r := setupTest(t)
	_, tokenA := createUser(t, "a@example.com", false)

	project := createProject(t, r, tokenA, "X")
	issue := createIssue(t, r, tokenA, project.ProjectID, nil)

	w := doRequest(t, r, http.MethodPost,
		fmt.Sprintf("/projects/%d/issues/%d/comments", project.ProjectID, issue.IssueID),
		tokenA, gin.H{"description": "first"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, r, http.MethodDelete,
		fmt.Sprintf("/projects/%d/issues/%d", project.ProjectID, issue.IssueID), tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]string](t, w)
	assert.Equal(t, "Issue deleted successfully", body["message"])

	var comments int64
	require.NoError(t, db.DB.Model(&models.Comment{}).Where("issue_id = ?", issue.IssueID).Count(&comments).Error)
	assert.Zero(t, comments)
}

// TestProjectIssueWorkflow walks the end-to-end scenario: project creation
// enrolls the author, an unassigned issue lands on the author without new
// enrollment, and an outsider is denied access to the issue list.
func TestProjectIssueWorkflow(t *testing.T) {
	r := setupTest(t)
	userA, tokenA := createUser(t, "a@example.com", false)
	_, tokenB := createUser(t, "b@example.com", false)

	project := createProject(t, r, tokenA, "X")
	require.Len(t, project.Contributors, 1)
	assert.Equal(t, types.RoleAuthor, project.Contributors[0].Role)
	assert.Equal(t, types.PermissionManage, project.Contributors[0].Permission)

	issue := createIssue(t, r, tokenA, project.ProjectID, nil)
	require.NotNil(t, issue.AssigneeUserID)
	assert.Equal(t, userA.ID, *issue.AssigneeUserID)

	var count int64
	require.NoError(t, db.DB.Model(&models.Contributor{}).
		Where("project_id = ?", project.ProjectID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/projects/%d/issues", project.ProjectID), tokenB, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
