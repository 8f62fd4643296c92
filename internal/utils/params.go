package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func pathID(ctx *gin.Context, name string) (uint, error) {
	idStr := ctx.Param(name)

	if idStr == "" {
		return 0, errors.New("missing " + name)
	}

	id, err := strconv.ParseUint(idStr, 10, 32)

	if err != nil {
		return 0, errors.New("invalid " + name)
	}

	return uint(id), nil
}

func GetProjectID(ctx *gin.Context) (uint, error) {
	return pathID(ctx, "project_id")
}

func GetIssueID(ctx *gin.Context) (uint, error) {
	return pathID(ctx, "issue_id")
}

func GetCommentID(ctx *gin.Context) (uint, error) {
	return pathID(ctx, "comment_id")
}

func GetContributorID(ctx *gin.Context) (uint, error) {
	return pathID(ctx, "contributor_id")
}
