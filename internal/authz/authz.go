// Package authz implements the access rules for projects and their nested
// resources.
//
// Authorization rules:
//   - Reading a project's sub-resources (contributors, issues, comments)
//     requires being a contributor of that project
//   - Only an object's author may mutate it
//   - Only the project author may manage the contributor list
//   - Only the issue author may open comments on the issue
//
// Each rule exposes a collection gate (can the caller act on the resource
// class at all) and an object gate (can the caller act on this specific
// instance). An endpoint attaches an ordered list of rules; every gate of
// every rule must pass, and evaluation stops at the first denial.
package authz

import (
	"net/http"

	"github.com/softdesk-dev/softdesk/internal/models"
)

// Request carries everything a rule may inspect: the caller, the verb, and
// the ancestors resolved from the request path. Project is set for every
// nested resource; Issue only for comment endpoints. Ancestors must be
// resolved (and their absence reported as a 404) before any rule runs.
type Request struct {
	UserID  uint
	Method  string
	Project *models.Project
	Issue   *models.Issue
}

// Object is a loaded resource instance with a server-assigned author.
type Object interface {
	AuthorUserID() uint
}

type Rule interface {
	// Permit is the collection-level gate, evaluated before the target
	// object is loaded.
	Permit(rc Request) bool
	// PermitObject is the object-level gate for an already-loaded instance.
	PermitObject(rc Request, obj Object) bool
}

// Safe reports whether the verb is read-only.
func Safe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Allowed evaluates the collection gates of every rule, short-circuiting on
// the first denial.
func Allowed(rc Request, rules ...Rule) bool {
	for _, rule := range rules {
		if !rule.Permit(rc) {
			return false
		}
	}
	return true
}

// AllowedObject evaluates both gates of every rule against a loaded object,
// short-circuiting on the first denial.
func AllowedObject(rc Request, obj Object, rules ...Rule) bool {
	for _, rule := range rules {
		if !rule.Permit(rc) {
			return false
		}
		if !rule.PermitObject(rc, obj) {
			return false
		}
	}
	return true
}

func isContributor(project *models.Project, userID uint) bool {
	if project == nil {
		return false
	}
	for _, contributor := range project.Contributors {
		if contributor.UserID == userID {
			return true
		}
	}
	return false
}
