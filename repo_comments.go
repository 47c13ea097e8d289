package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Comments interface {
	repository.Repository[*Comment]

	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Comment, error)
	GetAuthorID(ctx context.Context, commentID uuid.UUID) (uuid.UUID, error)
}

type comments struct {
	repository.Repository[*Comment]
	db *bun.DB
}

var _ Comments = (*comments)(nil)

func NewCommentsRepository(db *bun.DB) Comments {
	repo := repository.NewRepository[*Comment](db, repository.ModelHandlers[*Comment]{
		NewRecord: func() *Comment { return &Comment{} },
		GetID: func(c *Comment) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Comment, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &comments{
		Repository: repo,
		db:         db,
	}
}

func (a *comments) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Comment, error) {
	var records []*Comment
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.task_id = ?", taskID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return records, nil
}

// GetAuthorID fetches just the authorship column so ownership checks do not
// drag the comment body across the wire.
func (a *comments) GetAuthorID(ctx context.Context, commentID uuid.UUID) (uuid.UUID, error) {
	record := &Comment{}
	err := a.db.NewSelect().
		Model(record).
		Column("author_id").
		Where("?TableAlias.id = ?", commentID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return uuid.Nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"comment_id": commentID.String(),
				})
		}
		return uuid.Nil, err
	}

	return record.AuthorID, nil
}
