package types

import (
	"os"
	"strings"
)

const ContextUserKey = "user"

// Project types
const (
	ProjectTypeBackEnd  = "back end"
	ProjectTypeFrontEnd = "front end"
	ProjectTypeIOS      = "iOS"
	ProjectTypeAndroid  = "Android"
)

// Contributor roles. "GUEST" is a deprecated alias from an earlier revision
// and is rejected on input.
const (
	RoleAuthor       = "AUTHOR"
	RoleCollaborator = "COLLABORATOR"
)

// Contributor permissions, derived from the role and never client-settable.
const (
	PermissionManage = "manage"
	PermissionEdit   = "edit"
)

// Issue tags
const (
	TagBug         = "BUG"
	TagEnhancement = "ENHANCEMENT"
	TagTask        = "TASK"
)

// Issue priorities
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// Issue statuses
const (
	StatusToDo       = "To-Do"
	StatusInProgress = "In-Progress"
	StatusCompleted  = "Completed"
)

// The binding "oneof" tag cannot express values containing spaces
// ("back end"), so enum membership is checked with these helpers instead.

func ValidProjectType(t string) bool {
	switch t {
	case ProjectTypeBackEnd, ProjectTypeFrontEnd, ProjectTypeIOS, ProjectTypeAndroid:
		return true
	}
	return false
}

func ValidRole(r string) bool {
	switch r {
	case RoleAuthor, RoleCollaborator:
		return true
	}
	return false
}

func ValidTag(t string) bool {
	switch t {
	case TagBug, TagEnhancement, TagTask:
		return true
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ValidStatus(s string) bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// PermissionForRole derives the stored permission from the contributor role.
func PermissionForRole(role string) string {
	if role == RoleAuthor {
		return PermissionManage
	}
	return PermissionEdit
}

var (
	// Default allowed origins for development
	defaultOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}

	AllowedOrigins = initAllowedOrigins()
)

func initAllowedOrigins() []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = append(origins, clientURL)
	}

	if allowedOrigins := os.Getenv("ALLOWED_ORIGINS"); allowedOrigins != "" {
		envOrigins := strings.Split(allowedOrigins, ",")
		for _, origin := range envOrigins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}
