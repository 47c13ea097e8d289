package auth

import (
	"context"

	"github.com/taskmesh/go-auth/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener so consumers can use auth helpers directly.
type ValidationListener = jwtware.ValidationListener

// ContextEnricherAdapter adapts jwtware.AuthClaims to auth.AuthClaims and stores
// claims in the standard context for downstream guard usage.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}

	return WithClaimsContext(c, authClaims)
}

// IdentityEnricherAdapter stores the resolved identity in the standard
// context so guards and handlers can reach it without the router context.
func IdentityEnricherAdapter(c context.Context, identity jwtware.Identity) context.Context {
	authIdentity, ok := identity.(Identity)
	if !ok {
		return c
	}

	return WithIdentityContext(c, authIdentity)
}

// TokenValidatorAdapter lifts an auth.TokenValidator into the mirror
// interface jwtware expects.
func TokenValidatorAdapter(validator TokenValidator) jwtware.TokenValidator {
	return tokenValidatorAdapter{validator: validator}
}

type tokenValidatorAdapter struct {
	validator TokenValidator
}

func (a tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := a.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// IdentityResolverAdapter builds a jwtware.IdentityResolver that re-reads
// the identity record named by the token's subject. Tokens that outlive
// their account, or that carry a stale role, get caught here on the next
// request.
func IdentityResolverAdapter(provider IdentityProvider) jwtware.IdentityResolver {
	return func(ctx context.Context, claims jwtware.AuthClaims) (jwtware.Identity, error) {
		identity, err := provider.FindIdentityByID(ctx, claims.UserID())
		if err != nil {
			return nil, err
		}
		return identity, nil
	}
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}
