package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

type SessionObject struct {
	UserID         string         `json:"user_id,omitempty"`
	Audience       []string       `json:"audience,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

// HasRole checks if the session carries a specific role
func (s *SessionObject) HasRole(role string) bool {
	return string(s.getGlobalRole()) == role
}

// IsAtLeast checks if the session's role is at least the minimum required role
func (s *SessionObject) IsAtLeast(minRole UserRole) bool {
	return RoleIsAtLeast(s.getGlobalRole(), minRole)
}

// getGlobalRole retrieves the role from session data, falling back to the
// least privileged role when missing or unparseable
func (s *SessionObject) getGlobalRole() UserRole {
	if s.Data != nil {
		if roleData, exists := s.Data["role"]; exists {
			if roleStr, ok := roleData.(string); ok {
				if role, valid := ParseRole(roleStr); valid {
					return role
				}
			}
		}
	}
	return RoleDeveloper
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s aud=%v iss=%s iat=%s",
		s.UserID,
		s.Audience,
		s.Issuer,
		issuedAt,
	)
}

// sessionFromAuthClaims creates a SessionObject from AuthClaims
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToParseData
	}

	data := make(map[string]any)
	data["role"] = claims.Role()
	data["email"] = claims.Email()

	var audience []string
	issuer := claims.Subject()
	if jwtClaims, ok := claims.(*JWTClaims); ok {
		audience = append(audience, jwtClaims.RegisteredClaims.Audience...)

		if jwtClaims.RegisteredClaims.Issuer != "" {
			issuer = jwtClaims.RegisteredClaims.Issuer
		}

		if len(jwtClaims.Scopes) > 0 {
			data["scopes"] = jwtClaims.Scopes
		}

		if len(jwtClaims.Metadata) > 0 {
			data["metadata"] = jwtClaims.Metadata
		}
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()

	return &SessionObject{
		UserID:         claims.UserID(),
		Audience:       audience,
		Issuer:         issuer,
		Data:           data,
		IssuedAt:       &issuedAt,
		ExpirationDate: &expiresAt,
	}, nil
}

// sessionFromClaims builds a SessionObject straight from raw jwt.MapClaims,
// for tokens parsed by middleware that predates structured claims.
func sessionFromClaims(claims jwt.MapClaims) (*SessionObject, error) {
	parsed := &JWTClaims{}

	if sub, err := claims.GetSubject(); err == nil {
		parsed.RegisteredClaims.Subject = sub
	}

	if uid, ok := claims["uid"].(string); ok {
		parsed.UID = uid
	}

	if email, ok := claims["email"].(string); ok {
		parsed.UserEmail = email
	}

	if role, ok := claims["role"].(string); ok {
		parsed.UserRole = role
	}

	if iss, err := claims.GetIssuer(); err == nil {
		parsed.RegisteredClaims.Issuer = iss
	}

	if aud, err := claims.GetAudience(); err == nil {
		parsed.RegisteredClaims.Audience = aud
	}

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		parsed.RegisteredClaims.IssuedAt = iat
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		parsed.RegisteredClaims.ExpiresAt = exp
	}

	if parsed.UserID() == "" {
		return nil, ErrUnableToMapClaims
	}

	return sessionFromAuthClaims(parsed)
}
