package authz

import "net/http"

// baseRule provides pass-through defaults so each rule only overrides the
// gate it cares about.
type baseRule struct{}

func (baseRule) Permit(Request) bool               { return true }
func (baseRule) PermitObject(Request, Object) bool { return true }

// IsAuthorOrReadOnly permits safe verbs on any object and unsafe verbs only
// to the object's author.
type IsAuthorOrReadOnly struct{ baseRule }

func (IsAuthorOrReadOnly) PermitObject(rc Request, obj Object) bool {
	if Safe(rc.Method) {
		return true
	}
	return obj.AuthorUserID() == rc.UserID
}

// IsProjectContributor denies callers outside the resolved project's
// contributor set for every verb, safe or not. Read access to a project's
// sub-resources requires membership.
type IsProjectContributor struct{ baseRule }

func (IsProjectContributor) Permit(rc Request) bool {
	return isContributor(rc.Project, rc.UserID)
}

// IsRelatedProjectAuthor restricts creation of a project-owned child to the
// project's author, and mutation of an existing child to the same.
type IsRelatedProjectAuthor struct{ baseRule }

func (IsRelatedProjectAuthor) Permit(rc Request) bool {
	if rc.Project != nil && rc.Project.AuthorID == rc.UserID {
		return true
	}
	return rc.Method != http.MethodPost
}

func (IsRelatedProjectAuthor) PermitObject(rc Request, obj Object) bool {
	if Safe(rc.Method) {
		return true
	}
	return rc.Project != nil && rc.Project.AuthorID == rc.UserID
}

// IsRelatedIssueAuthor restricts comment creation to the parent issue's
// author. All other verbs pass.
type IsRelatedIssueAuthor struct{ baseRule }

func (IsRelatedIssueAuthor) Permit(rc Request) bool {
	if rc.Issue != nil && rc.Issue.AuthorID == rc.UserID {
		return true
	}
	return rc.Method != http.MethodPost
}

// IsProjectContributorForObject is the object-level variant of
// IsProjectContributor: safe verbs pass, unsafe verbs require the caller to
// be a contributor of the object's project.
type IsProjectContributorForObject struct{ baseRule }

func (IsProjectContributorForObject) PermitObject(rc Request, obj Object) bool {
	if Safe(rc.Method) {
		return true
	}
	return isContributor(rc.Project, rc.UserID)
}
