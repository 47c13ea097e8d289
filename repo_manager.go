package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Projects() Projects
	Tasks() Tasks
	Comments() Comments
}

type mngr struct {
	db       *bun.DB
	users    Users
	projects Projects
	tasks    Tasks
	comments Comments
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	RegisterManyToManyModels(db)

	return &mngr{
		db:       db,
		users:    NewUsersRepository(db),
		projects: NewProjectsRepository(db),
		tasks:    NewTasksRepository(db),
		comments: NewCommentsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.projects == nil {
		return errors.New("repository projects should be initialized")
	}

	if m.tasks == nil {
		return errors.New("repository tasks should be initialized")
	}

	if m.comments == nil {
		return errors.New("repository comments should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Projects() Projects {
	return m.projects
}

func (m mngr) Tasks() Tasks {
	return m.tasks
}

func (m mngr) Comments() Comments {
	return m.comments
}
