package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// Authorizer answers access questions by combining the identity's global
// role with its relation to the resource at hand. Store failures never
// grant access; every lookup error comes back as a denial plus the error.
type Authorizer interface {
	HasRole(identity Identity, role UserRole) bool
	HasRoleAtLeast(identity Identity, role UserRole) bool
	CanAccessProject(ctx context.Context, identity Identity, projectID uuid.UUID) (bool, error)
	IsProjectLeader(ctx context.Context, identity Identity, projectID uuid.UUID) (bool, error)
	IsProjectMember(ctx context.Context, identity Identity, projectID uuid.UUID) (bool, error)
	CanModifyComment(ctx context.Context, identity Identity, commentID uuid.UUID) (bool, error)
}

// CommentOwnershipResolver reports who authored a comment.
type CommentOwnershipResolver interface {
	GetAuthorID(ctx context.Context, commentID uuid.UUID) (uuid.UUID, error)
}

type AuthorizerImpl struct {
	projects ProjectRelationResolver
	comments CommentOwnershipResolver
	logger   Logger
	sink     ActivitySink
}

var _ Authorizer = (*AuthorizerImpl)(nil)

func NewAuthorizer(projects ProjectRelationResolver, comments CommentOwnershipResolver) *AuthorizerImpl {
	return &AuthorizerImpl{
		projects: projects,
		comments: comments,
		logger:   defLogger{},
		sink:     noopActivitySink{},
	}
}

func (a *AuthorizerImpl) WithLogger(logger Logger) *AuthorizerImpl {
	if logger != nil {
		a.logger = logger
	}
	return a
}

func (a *AuthorizerImpl) WithActivitySink(sink ActivitySink) *AuthorizerImpl {
	a.sink = normalizeActivitySink(sink)
	return a
}

// HasRole reports whether the identity carries exactly the given role.
func (a *AuthorizerImpl) HasRole(identity Identity, role UserRole) bool {
	if identity == nil {
		return false
	}
	return identity.Role() == role
}

// HasRoleAtLeast reports whether the identity's role sits at or above the
// given role in the developer < leader < administrator ordering. Unknown
// roles never satisfy the check.
func (a *AuthorizerImpl) HasRoleAtLeast(identity Identity, role UserRole) bool {
	if identity == nil {
		return false
	}
	return RoleIsAtLeast(identity.Role(), role)
}

// IsProjectLeader reports whether the identity leads the project.
// Administrators pass without a lookup. A project with a vacant leader
// seat denies everyone else, and a project that does not exist denies
// without an error.
func (a *AuthorizerImpl) IsProjectLeader(ctx context.Context, identity Identity, projectID uuid.UUID) (bool, error) {
	if a.HasRole(identity, RoleAdministrator) {
		return true, nil
	}

	userID, ok := a.subjectID(identity)
	if !ok {
		return false, nil
	}

	relations, err := a.relations(ctx, identity, projectID)
	if err != nil {
		return false, err
	}
	if relations == nil {
		return false, nil
	}

	return relations.IsLeader(userID), nil
}

// IsProjectMember reports whether the identity belongs to the project.
// Leading a project counts as membership, and administrators pass without
// a lookup.
func (a *AuthorizerImpl) IsProjectMember(ctx context.Context, identity Identity, projectID uuid.UUID) (bool, error) {
	if a.HasRole(identity, RoleAdministrator) {
		return true, nil
	}

	userID, ok := a.subjectID(identity)
	if !ok {
		return false, nil
	}

	relations, err := a.relations(ctx, identity, projectID)
	if err != nil {
		return false, err
	}
	if relations == nil {
		return false, nil
	}

	return relations.IsMember(userID), nil
}

// CanAccessProject is membership based read access.
func (a *AuthorizerImpl) CanAccessProject(ctx context.Context, identity Identity, projectID uuid.UUID) (bool, error) {
	return a.IsProjectMember(ctx, identity, projectID)
}

// CanModifyComment grants the comment's author and administrators. A
// comment that does not exist denies without an error.
func (a *AuthorizerImpl) CanModifyComment(ctx context.Context, identity Identity, commentID uuid.UUID) (bool, error) {
	if a.HasRole(identity, RoleAdministrator) {
		return true, nil
	}

	userID, ok := a.subjectID(identity)
	if !ok {
		return false, nil
	}

	authorID, err := a.comments.GetAuthorID(ctx, commentID)
	if err != nil {
		if repository.IsRecordNotFound(err) || errors.IsNotFound(err) {
			return false, nil
		}
		a.logger.Error("authorizer: comment ownership lookup failed", "comment", commentID.String(), "error", err)
		return false, errors.Wrap(err, errors.CategoryInternal, "unable to resolve comment ownership").
			WithMetadata(map[string]any{
				"comment_id": commentID.String(),
			})
	}

	return authorID == userID, nil
}

// relations fetches project relations, translating a missing project into
// a plain denial and anything else into a hard failure.
func (a *AuthorizerImpl) relations(ctx context.Context, identity Identity, projectID uuid.UUID) (*ProjectRelations, error) {
	relations, err := a.projects.GetProjectRelations(ctx, projectID)
	if err != nil {
		if repository.IsRecordNotFound(err) || errors.IsNotFound(err) {
			return nil, nil
		}

		a.logger.Error("authorizer: project relations lookup failed", "project", projectID.String(), "error", err)
		a.recordDenial(ctx, identity, "project", projectID.String(), "relation lookup failed")

		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to resolve project relations").
			WithMetadata(map[string]any{
				"project_id": projectID.String(),
			})
	}

	return &relations, nil
}

// subjectID parses the identity's ID claim. Identities with IDs that are
// not UUIDs cannot match any relation and are denied outright.
func (a *AuthorizerImpl) subjectID(identity Identity) (uuid.UUID, bool) {
	if identity == nil {
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(identity.ID())
	if err != nil {
		a.logger.Warn("authorizer: identity has a non UUID subject", "subject", identity.ID())
		return uuid.Nil, false
	}

	return userID, true
}

func (a *AuthorizerImpl) recordDenial(ctx context.Context, identity Identity, resource, resourceID, reason string) {
	actor := ActorRef{Type: "user"}
	if identity != nil {
		actor.ID = identity.ID()
	}

	event := ActivityEvent{
		EventType: ActivityEventAccessDenied,
		Actor:     actor,
		Metadata: map[string]any{
			"resource":    resource,
			"resource_id": resourceID,
			"reason":      reason,
		},
	}

	if err := a.sink.Record(ctx, event); err != nil {
		a.logger.Warn("authorizer: unable to record activity event", "error", err)
	}
}
