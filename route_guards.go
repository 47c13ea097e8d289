package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// GuardConfig wires route guards to the authorizer and to the context keys
// the authentication middleware populates.
type GuardConfig struct {
	Authorizer  Authorizer
	IdentityKey string
	// ProjectParam is the route parameter holding the project ID.
	// Defaults to "projectId".
	ProjectParam string
	// CommentParam is the route parameter holding the comment ID.
	// Defaults to "commentId".
	CommentParam string
	ErrorHandler func(router.Context, error) error
}

func (c GuardConfig) identityKey() string {
	if c.IdentityKey == "" {
		return "identity"
	}
	return c.IdentityKey
}

func (c GuardConfig) projectParam() string {
	if c.ProjectParam == "" {
		return "projectId"
	}
	return c.ProjectParam
}

func (c GuardConfig) commentParam() string {
	if c.CommentParam == "" {
		return "commentId"
	}
	return c.CommentParam
}

func (c GuardConfig) errorHandler() func(router.Context, error) error {
	if c.ErrorHandler != nil {
		return c.ErrorHandler
	}
	return func(ctx router.Context, err error) error {
		return err
	}
}

// RequireRole passes only identities whose global role sits at or above
// the given role. Requests with no resolved identity get an unauthorized
// error rather than a forbidden one.
func RequireRole(cfg GuardConfig, role UserRole) router.MiddlewareFunc {
	fail := cfg.errorHandler()
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			identity, ok := IdentityFromRouterContext(ctx, cfg.identityKey())
			if !ok {
				return fail(ctx, ErrIdentityNotFound)
			}

			if !cfg.Authorizer.HasRoleAtLeast(identity, role) {
				return fail(ctx, forbidden("role", string(role), identity))
			}

			return hf(ctx)
		}
	}
}

// RequireProjectLeader passes administrators and the project's leader.
func RequireProjectLeader(cfg GuardConfig) router.MiddlewareFunc {
	return requireProjectRelation(cfg, "project leadership", func(a Authorizer) projectCheck {
		return a.IsProjectLeader
	})
}

// RequireProjectMember passes administrators, the project's leader, and
// its members.
func RequireProjectMember(cfg GuardConfig) router.MiddlewareFunc {
	return requireProjectRelation(cfg, "project membership", func(a Authorizer) projectCheck {
		return a.IsProjectMember
	})
}

// RequireCommentOwner passes administrators and the comment's author.
func RequireCommentOwner(cfg GuardConfig) router.MiddlewareFunc {
	fail := cfg.errorHandler()
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			identity, ok := IdentityFromRouterContext(ctx, cfg.identityKey())
			if !ok {
				return fail(ctx, ErrIdentityNotFound)
			}

			commentID, err := uuid.Parse(ctx.Param(cfg.commentParam(), ""))
			if err != nil {
				return fail(ctx, errors.New("malformed comment identifier", errors.CategoryBadInput).
					WithCode(errors.CodeBadRequest))
			}

			ok, err = cfg.Authorizer.CanModifyComment(ctx.Context(), identity, commentID)
			if err != nil {
				return fail(ctx, err)
			}

			if !ok {
				return fail(ctx, forbidden("comment ownership", commentID.String(), identity))
			}

			return hf(ctx)
		}
	}
}

type projectCheck func(ctx context.Context, identity Identity, projectID uuid.UUID) (bool, error)

func requireProjectRelation(cfg GuardConfig, relation string, pick func(Authorizer) projectCheck) router.MiddlewareFunc {
	fail := cfg.errorHandler()
	check := pick(cfg.Authorizer)
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			identity, ok := IdentityFromRouterContext(ctx, cfg.identityKey())
			if !ok {
				return fail(ctx, ErrIdentityNotFound)
			}

			projectID, err := uuid.Parse(ctx.Param(cfg.projectParam(), ""))
			if err != nil {
				return fail(ctx, errors.New("malformed project identifier", errors.CategoryBadInput).
					WithCode(errors.CodeBadRequest))
			}

			ok, err = check(ctx.Context(), identity, projectID)
			if err != nil {
				return fail(ctx, err)
			}

			if !ok {
				return fail(ctx, forbidden(relation, projectID.String(), identity))
			}

			return hf(ctx)
		}
	}
}

func forbidden(requirement, resource string, identity Identity) error {
	meta := map[string]any{
		"requirement": requirement,
		"resource":    resource,
	}
	if identity != nil {
		meta["subject"] = identity.ID()
		meta["role"] = string(identity.Role())
	}

	return errors.New(ErrForbidden.Message, ErrForbidden.Category).
		WithTextCode(ErrForbidden.TextCode).
		WithCode(errors.CodeForbidden).
		WithMetadata(meta)
}
