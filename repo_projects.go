package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProjectRelations is the slice of a project the authorizer cares about:
// who leads it and who is on it. LeaderID is nil when the leadership seat
// is vacant.
type ProjectRelations struct {
	ProjectID uuid.UUID
	LeaderID  *uuid.UUID
	MemberIDs map[uuid.UUID]struct{}
}

func (r ProjectRelations) IsLeader(userID uuid.UUID) bool {
	return r.LeaderID != nil && *r.LeaderID == userID
}

func (r ProjectRelations) IsMember(userID uuid.UUID) bool {
	if r.IsLeader(userID) {
		return true
	}
	_, ok := r.MemberIDs[userID]
	return ok
}

// ProjectRelationResolver is the lookup surface the authorizer depends on.
// Implementations report a missing project through a not found error.
type ProjectRelationResolver interface {
	GetProjectRelations(ctx context.Context, projectID uuid.UUID) (ProjectRelations, error)
}

type Projects interface {
	repository.Repository[*Project]
	ProjectRelationResolver

	GetByIDWithMembers(ctx context.Context, id uuid.UUID) (*Project, error)
	SetLeader(ctx context.Context, projectID uuid.UUID, leaderID *uuid.UUID) (*Project, error)
	SetLeaderTx(ctx context.Context, tx bun.IDB, projectID uuid.UUID, leaderID *uuid.UUID) (*Project, error)
	AddMember(ctx context.Context, projectID, userID uuid.UUID) error
	AddMemberTx(ctx context.Context, tx bun.IDB, projectID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
	RemoveMemberTx(ctx context.Context, tx bun.IDB, projectID, userID uuid.UUID) error
}

type projects struct {
	repository.Repository[*Project]
	db *bun.DB
}

var _ Projects = (*projects)(nil)

func NewProjectsRepository(db *bun.DB) Projects {
	repo := repository.NewRepository[*Project](db, repository.ModelHandlers[*Project]{
		NewRecord: func() *Project { return &Project{} },
		GetID: func(p *Project) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Project, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &projects{
		Repository: repo,
		db:         db,
	}
}

func (a *projects) GetByIDWithMembers(ctx context.Context, id uuid.UUID) (*Project, error) {
	record := &Project{}
	err := a.db.NewSelect().
		Model(record).
		Relation("Members").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *projects) GetProjectRelations(ctx context.Context, projectID uuid.UUID) (ProjectRelations, error) {
	relations := ProjectRelations{
		ProjectID: projectID,
		MemberIDs: map[uuid.UUID]struct{}{},
	}

	project := &Project{}
	err := a.db.NewSelect().
		Model(project).
		Column("id", "leader_id").
		Where("?TableAlias.id = ?", projectID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return relations, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"project_id": projectID.String(),
				})
		}
		return relations, err
	}

	relations.LeaderID = project.LeaderID

	var memberIDs []uuid.UUID
	err = a.db.NewSelect().
		Model((*ProjectMember)(nil)).
		Column("user_id").
		Where("project_id = ?", projectID).
		Scan(ctx, &memberIDs)
	if err != nil {
		return relations, err
	}

	for _, id := range memberIDs {
		relations.MemberIDs[id] = struct{}{}
	}

	return relations, nil
}

func (a *projects) SetLeader(ctx context.Context, projectID uuid.UUID, leaderID *uuid.UUID) (*Project, error) {
	return a.SetLeaderTx(ctx, a.db, projectID, leaderID)
}

// SetLeaderTx reassigns or vacates the leadership seat. A nil leaderID
// leaves the project leaderless, which locks non administrators out of
// leader gated operations until a new leader is set.
func (a *projects) SetLeaderTx(ctx context.Context, tx bun.IDB, projectID uuid.UUID, leaderID *uuid.UUID) (*Project, error) {
	_, err := tx.NewUpdate().
		Model((*Project)(nil)).
		Set("leader_id = ?", leaderID).
		Where("id = ?", projectID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return a.Repository.GetByIDTx(ctx, tx, projectID.String())
}

func (a *projects) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return a.AddMemberTx(ctx, a.db, projectID, userID)
}

func (a *projects) AddMemberTx(ctx context.Context, tx bun.IDB, projectID, userID uuid.UUID) error {
	member := &ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
	}

	_, err := tx.NewInsert().
		Model(member).
		On("CONFLICT (project_id, user_id) DO NOTHING").
		Exec(ctx)

	return err
}

func (a *projects) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return a.RemoveMemberTx(ctx, a.db, projectID, userID)
}

func (a *projects) RemoveMemberTx(ctx context.Context, tx bun.IDB, projectID, userID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*ProjectMember)(nil)).
		Where("project_id = ?", projectID).
		Where("user_id = ?", userID).
		Exec(ctx)

	return err
}
