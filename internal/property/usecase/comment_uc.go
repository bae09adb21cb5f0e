package usecase

import (
	"context"
	"strings"

	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/property/domain"
)

const maxCommentLength = 500

// CommentUsecase manages the dependent comment records.
type CommentUsecase struct {
	comments   domain.CommentRepository
	properties domain.PropertyRepository
	logger     *logger.Logger
}

func NewCommentUsecase(comments domain.CommentRepository, properties domain.PropertyRepository, log *logger.Logger) *CommentUsecase {
	return &CommentUsecase{
		comments:   comments,
		properties: properties,
		logger:     log.Named("CommentUsecase"),
	}
}

// AddComment attaches a comment to an existing property.
func (uc *CommentUsecase) AddComment(ctx context.Context, propertyID, userID, text string, rate int) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &domain.ValidationError{Field: "text", Reason: "is required"}
	}
	if len(text) > maxCommentLength {
		return nil, &domain.ValidationError{Field: "text", Reason: "must be at most 500 characters"}
	}
	if rate < 1 || rate > 5 {
		return nil, &domain.ValidationError{Field: "rate", Reason: "must be between 1 and 5"}
	}

	if _, err := uc.properties.FindByID(ctx, propertyID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		PropertyID: propertyID,
		UserID:     userID,
		Text:       text,
		Rate:       rate,
	}
	if err := uc.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (uc *CommentUsecase) ListByProperty(ctx context.Context, propertyID string) ([]*domain.Comment, error) {
	if _, err := uc.properties.FindByID(ctx, propertyID); err != nil {
		return nil, err
	}
	return uc.comments.FindByProperty(ctx, propertyID)
}
