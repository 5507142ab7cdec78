// internal/repositories/comment_repository.go
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"trailhub/internal/events"
	"trailhub/internal/models"

	"go.uber.org/zap"
)

// commentRepository implements CommentRepository.
type commentRepository struct {
	*BaseRepository
}

// NewCommentRepository creates a new instance of CommentRepository.
func NewCommentRepository(db *sql.DB, logger *zap.Logger) CommentRepository {
	return &commentRepository{BaseRepository: NewBaseRepository(db, logger)}
}

// Insert writes a comment inside the publishing transaction.
func (r *commentRepository) Insert(ctx context.Context, tx events.Tx, comment *models.Comment) error {
	query := `
		INSERT INTO comments (
			id, trip_id, user_id, content, created_at
		) VALUES ($1, $2, $3, $4, $5)`

	if _, err := tx.ExecContext(ctx, query,
		comment.ID, comment.TripID, comment.UserID,
		comment.Content, comment.CreatedAt,
	); err != nil {
		r.GetLogger().Error("Failed to insert comment",
			zap.Error(err),
			zap.String("trip_id", comment.TripID.String()),
			zap.String("user_id", comment.UserID.String()),
		)
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	return nil
}
