package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's global role
type UserRole = string

const (
	// RoleDeveloper is the default role for registered users (i.e. work on
	// tasks, comment)
	RoleDeveloper UserRole = "developer"
	// RoleLeader can run projects they lead (i.e. manage members, tasks)
	RoleLeader UserRole = "leader"
	// RoleAdministrator overrides every resource scoped check
	RoleAdministrator UserRole = "administrator"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName      string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	ProfilePicture string     `bun:"profile_picture" json:"profile_picture,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"password_hash,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// FullName joins first and last name for display purposes
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Project is the project model. LeaderID may be NULL while a replacement
// leader is being assigned; authorization treats that as "nobody holds the
// leader relation", not as an error.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:prj"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	LeaderID      *uuid.UUID `bun:"leader_id,nullzero,type:uuid" json:"leader_id,omitempty"`
	Leader        *User      `bun:"rel:belongs-to,join:leader_id=id" json:"leader,omitempty"`
	Members       []*User    `bun:"m2m:project_members,join:Project=User" json:"members,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// ProjectMember is the join record between projects and their members
type ProjectMember struct {
	bun.BaseModel `bun:"table:project_members,alias:pmb"`
	ProjectID     uuid.UUID  `bun:"project_id,pk,type:uuid" json:"project_id,omitempty"`
	Project       *Project   `bun:"rel:belongs-to,join:project_id=id" json:"project,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,pk,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// TaskStatus tracks where a task sits on the board
type TaskStatus = string

const (
	// TaskStatusOpen is the initial status
	TaskStatusOpen TaskStatus = "open"
	// TaskStatusInProgress is an assigned, started task
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusDone is a completed task
	TaskStatusDone TaskStatus = "done"
)

// Task is the task model
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:tsk"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ProjectID     uuid.UUID  `bun:"project_id,notnull,type:uuid" json:"project_id,omitempty"`
	Project       *Project   `bun:"rel:belongs-to,join:project_id=id" json:"project,omitempty"`
	AssigneeID    *uuid.UUID `bun:"assignee_id,nullzero,type:uuid" json:"assignee_id,omitempty"`
	Assignee      *User      `bun:"rel:belongs-to,join:assignee_id=id" json:"assignee,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	Status        TaskStatus `bun:"status,notnull,default:'open'" json:"status,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Comment is the comment model
type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:cmt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	TaskID        uuid.UUID  `bun:"task_id,notnull,type:uuid" json:"task_id,omitempty"`
	Task          *Task      `bun:"rel:belongs-to,join:task_id=id" json:"task,omitempty"`
	AuthorID      uuid.UUID  `bun:"author_id,notnull,type:uuid" json:"author_id,omitempty"`
	Author        *User      `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Body          string     `bun:"body,notnull" json:"body,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// RegisterManyToManyModels registers join models with bun so m2m relations
// resolve. Call once per *bun.DB before querying projects with members.
func RegisterManyToManyModels(db *bun.DB) {
	db.RegisterModel((*ProjectMember)(nil))
}
