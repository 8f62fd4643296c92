// Package resolve loads path-referenced ancestor entities. Resolution runs
// before any authorization rule so that a nonexistent ancestor always
// reports NotFound, never a permission denial.
package resolve

import (
	"errors"

	"github.com/softdesk-dev/softdesk/db"
	"github.com/softdesk-dev/softdesk/internal/models"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrIssueNotFound   = errors.New("issue not found")
)

// Project loads a project by id with its contributor set preloaded, which
// the membership rules evaluate against.
func Project(projectID uint) (*models.Project, error) {
	var project models.Project

	err := db.DB.Preload("Contributors.User").First(&project, projectID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	return &project, nil
}

// ProjectIssue loads an issue by id, scoped to its containing project. An
// issue that exists under a different project is NotFound here.
func ProjectIssue(projectID, issueID uint) (*models.Issue, error) {
	var issue models.Issue

	err := db.DB.Where("id = ? AND project_id = ?", issueID, projectID).First(&issue).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}

	return &issue, nil
}
