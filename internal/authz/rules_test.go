package authz

import (
	"net/http"
	"testing"

	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/stretchr/testify/assert"
)

func projectWithContributors(authorID uint, memberIDs ...uint) *models.Project {
	project := &models.Project{AuthorID: authorID}
	project.ID = 1
	for _, id := range memberIDs {
		project.Contributors = append(project.Contributors, models.Contributor{UserID: id, ProjectID: 1})
	}
	return project
}

func TestSafe(t *testing.T) {
	assert.True(t, Safe(http.MethodGet))
	assert.True(t, Safe(http.MethodHead))
	assert.True(t, Safe(http.MethodOptions))
	assert.False(t, Safe(http.MethodPost))
	assert.False(t, Safe(http.MethodPatch))
	assert.False(t, Safe(http.MethodPut))
	assert.False(t, Safe(http.MethodDelete))
}

func TestIsAuthorOrReadOnly(t *testing.T) {
	issue := &models.Issue{AuthorID: 7}

	tests := []struct {
		name   string
		method string
		userID uint
		want   bool
	}{
		{"safe verb any caller", http.MethodGet, 99, true},
		{"unsafe verb author", http.MethodPatch, 7, true},
		{"unsafe verb non-author", http.MethodPatch, 8, false},
		{"delete non-author", http.MethodDelete, 8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := Request{UserID: tt.userID, Method: tt.method}
			assert.True(t, IsAuthorOrReadOnly{}.Permit(rc))
			assert.Equal(t, tt.want, IsAuthorOrReadOnly{}.PermitObject(rc, issue))
		})
	}
}

func TestIsProjectContributor(t *testing.T) {
	project := projectWithContributors(1, 1, 2)

	tests := []struct {
		name   string
		method string
		userID uint
		want   bool
	}{
		{"member read", http.MethodGet, 2, true},
		{"member write", http.MethodPost, 2, true},
		{"non-member read denied", http.MethodGet, 3, false},
		{"non-member write denied", http.MethodPost, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := Request{UserID: tt.userID, Method: tt.method, Project: project}
			assert.Equal(t, tt.want, IsProjectContributor{}.Permit(rc))
		})
	}
}

func TestIsProjectContributorNilProject(t *testing.T) {
	rc := Request{UserID: 1, Method: http.MethodGet}
	assert.False(t, IsProjectContributor{}.Permit(rc))
}

func TestIsRelatedProjectAuthor(t *testing.T) {
	project := projectWithContributors(1, 1, 2)

	tests := []struct {
		name      string
		method    string
		userID    uint
		permit    bool
		permitObj bool
	}{
		{"author create", http.MethodPost, 1, true, true},
		{"member create denied", http.MethodPost, 2, false, false},
		{"member read allowed", http.MethodGet, 2, true, true},
		{"member delete denied at object", http.MethodDelete, 2, true, false},
		{"author delete", http.MethodDelete, 1, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := Request{UserID: tt.userID, Method: tt.method, Project: project}
			assert.Equal(t, tt.permit, IsRelatedProjectAuthor{}.Permit(rc))
			assert.Equal(t, tt.permitObj, IsRelatedProjectAuthor{}.PermitObject(rc, project))
		})
	}
}

func TestIsRelatedIssueAuthor(t *testing.T) {
	issue := &models.Issue{AuthorID: 5}

	tests := []struct {
		name   string
		method string
		userID uint
		want   bool
	}{
		{"issue author create", http.MethodPost, 5, true},
		{"other member create denied", http.MethodPost, 6, false},
		{"other member read allowed", http.MethodGet, 6, true},
		{"other member patch allowed at collection", http.MethodPatch, 6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := Request{UserID: tt.userID, Method: tt.method, Issue: issue}
			assert.Equal(t, tt.want, IsRelatedIssueAuthor{}.Permit(rc))
		})
	}
}

func TestIsProjectContributorForObject(t *testing.T) {
	project := projectWithContributors(1, 1, 2)
	issue := &models.Issue{AuthorID: 3}

	tests := []struct {
		name   string
		method string
		userID uint
		want   bool
	}{
		{"safe verb non-member", http.MethodGet, 9, true},
		{"unsafe verb member", http.MethodPatch, 2, true},
		{"unsafe verb non-member", http.MethodPatch, 9, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := Request{UserID: tt.userID, Method: tt.method, Project: project}
			assert.Equal(t, tt.want, IsProjectContributorForObject{}.PermitObject(rc, issue))
		})
	}
}

func TestAllowedShortCircuits(t *testing.T) {
	project := projectWithContributors(1, 1)
	rc := Request{UserID: 2, Method: http.MethodPost, Project: project}

	// Non-member fails the first rule; composition must deny regardless of
	// later rules passing.
	assert.False(t, Allowed(rc, IsProjectContributor{}, IsRelatedIssueAuthor{}))

	rc.UserID = 1
	assert.True(t, Allowed(rc, IsProjectContributor{}, IsRelatedProjectAuthor{}))
}

func TestAllowedObjectChecksBothGates(t *testing.T) {
	project := projectWithContributors(1, 1, 2)
	issue := &models.Issue{AuthorID: 1}

	// Member but not author: collection gate passes, object gate denies.
	rc := Request{UserID: 2, Method: http.MethodPatch, Project: project}
	assert.False(t, AllowedObject(rc, issue, IsProjectContributor{}, IsAuthorOrReadOnly{}))

	// Author passes both.
	rc.UserID = 1
	assert.True(t, AllowedObject(rc, issue, IsProjectContributor{}, IsAuthorOrReadOnly{}))

	// Non-member author-equivalent is stopped at the collection gate.
	rc = Request{UserID: 3, Method: http.MethodGet, Project: project}
	assert.False(t, AllowedObject(rc, issue, IsProjectContributor{}, IsAuthorOrReadOnly{}))
}
