package domain

import (
	"fmt"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
)

// Коды доменных ошибок.
const (
	CodePostAlreadyPublished    = "POST_ALREADY_PUBLISHED"
	CodePostNotPublished        = "POST_NOT_PUBLISHED"
	CodePostContentMissing      = "POST_CONTENT_MISSING"
	CodeCategoryInUse           = "CATEGORY_IN_USE"
	CodeCommentResponseMismatch = "COMMENT_RESPONSE_MISMATCH"
	CodeEmailTaken              = "EMAIL_TAKEN"
	CodeCategoryNameTaken       = "CATEGORY_NAME_TAKEN"
)

func NewPostIsAlreadyPublishedError(id Identifier) *apperrors.AppError {
	return apperrors.NewBusinessRuleError(CodePostAlreadyPublished,
		fmt.Sprintf("Post with ID %d is already published.", id.Value()))
}

func NewPostIsNotPublishedError(id Identifier) *apperrors.AppError {
	return apperrors.NewBusinessRuleError(CodePostNotPublished,
		fmt.Sprintf("Post with ID %d is not published.", id.Value()))
}

func NewPostContentMissingError(id Identifier) *apperrors.AppError {
	return apperrors.NewBusinessRuleError(CodePostContentMissing,
		fmt.Sprintf("Post with ID %d cannot be published without content.", id.Value()))
}

func NewCategoryInUseError(id Identifier, posts int) *apperrors.AppError {
	return apperrors.NewConflictError(CodeCategoryInUse,
		fmt.Sprintf("Category with ID %d is used by %d post(s) and cannot be deleted.", id.Value(), posts))
}

func NewCommentResponseMismatchError(responseID, commentID Identifier) *apperrors.AppError {
	return apperrors.NewArgumentInvalid(
		fmt.Sprintf("Comment response %d does not belong to comment %d.", responseID.Value(), commentID.Value())).
		WithDetail("reason", CodeCommentResponseMismatch)
}

// NewEntityNotFoundError - общий промах по идентификатору, например "Post with ID 3 not found.".
func NewEntityNotFoundError(entity string, id Identifier) *apperrors.AppError {
	return apperrors.NewNotFoundf("%s with ID %d not found.", entity, id.Value())
}

func NewEmailTakenError(email Email) *apperrors.AppError {
	return apperrors.NewConflictError(CodeEmailTaken,
		fmt.Sprintf("Email \"%s\" is already in use.", email.Value()))
}

func NewCategoryNameTakenError(name CategoryName) *apperrors.AppError {
	return apperrors.NewConflictError(CodeCategoryNameTaken,
		fmt.Sprintf("Category name \"%s\" is already in use.", name.Value()))
}
