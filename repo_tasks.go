package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Tasks interface {
	repository.Repository[*Task]

	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Task, error)
	Assign(ctx context.Context, taskID uuid.UUID, assigneeID *uuid.UUID) (*Task, error)
	AssignTx(ctx context.Context, tx bun.IDB, taskID uuid.UUID, assigneeID *uuid.UUID) (*Task, error)
	UpdateStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus) (*Task, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, taskID uuid.UUID, status TaskStatus) (*Task, error)
}

type tasks struct {
	repository.Repository[*Task]
	db *bun.DB
}

var _ Tasks = (*tasks)(nil)

func NewTasksRepository(db *bun.DB) Tasks {
	repo := repository.NewRepository[*Task](db, repository.ModelHandlers[*Task]{
		NewRecord: func() *Task { return &Task{} },
		GetID: func(t *Task) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Task, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "title"
		},
	})

	return &tasks{
		Repository: repo,
		db:         db,
	}
}

func (a *tasks) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Task, error) {
	var records []*Task
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.project_id = ?", projectID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *tasks) Assign(ctx context.Context, taskID uuid.UUID, assigneeID *uuid.UUID) (*Task, error) {
	return a.AssignTx(ctx, a.db, taskID, assigneeID)
}

func (a *tasks) AssignTx(ctx context.Context, tx bun.IDB, taskID uuid.UUID, assigneeID *uuid.UUID) (*Task, error) {
	_, err := tx.NewUpdate().
		Model((*Task)(nil)).
		Set("assignee_id = ?", assigneeID).
		Where("id = ?", taskID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return a.Repository.GetByIDTx(ctx, tx, taskID.String())
}

func (a *tasks) UpdateStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus) (*Task, error) {
	return a.UpdateStatusTx(ctx, a.db, taskID, status)
}

func (a *tasks) UpdateStatusTx(ctx context.Context, tx bun.IDB, taskID uuid.UUID, status TaskStatus) (*Task, error) {
	record := &Task{
		ID:     taskID,
		Status: status,
	}

	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(taskID.String()))
}
