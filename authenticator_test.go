package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	auth "github.com/taskmesh/go-auth"
)

// TestIdentity is a simple implementation of Identity interface for testing
type TestIdentity struct {
	id          string
	email       string
	role        string
	displayName string
}

func (t TestIdentity) ID() string          { return t.id }
func (t TestIdentity) Email() string       { return t.email }
func (t TestIdentity) Role() string        { return t.role }
func (t TestIdentity) DisplayName() string { return t.displayName }

func newMockConfig() *MockConfig {
	mockConfig := new(MockConfig)
	mockConfig.On("GetSigningKey").Return("test-signing-key")
	mockConfig.On("GetTokenExpiration").Return(24)
	mockConfig.On("GetTokenLeeway").Return(time.Duration(0))
	mockConfig.On("GetIssuer").Return("test-issuer")
	mockConfig.On("GetAudience").Return([]string{"test:audience"})
	return mockConfig
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	mockProvider := new(MockIdentityProvider)
	mockConfig := newMockConfig()

	authenticator := auth.NewAuthenticator(mockProvider, mockConfig)

	t.Run("Successful login", func(t *testing.T) {
		identity := TestIdentity{
			id:          uuid.New().String(),
			email:       "test@example.com",
			role:        "administrator",
			displayName: "Test User",
		}

		mockProvider.On("VerifyIdentity", ctx, "test@example.com", "password123").
			Return(identity, nil).Once()

		token, err := authenticator.Login(ctx, "test@example.com", "password123")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		parsedToken, err := jwt.ParseWithClaims(token, &auth.JWTClaims{}, func(t *jwt.Token) (any, error) {
			return []byte("test-signing-key"), nil
		})

		assert.NoError(t, err)
		assert.True(t, parsedToken.Valid)

		claims, ok := parsedToken.Claims.(*auth.JWTClaims)
		assert.True(t, ok)
		assert.Equal(t, identity.ID(), claims.Subject())
		assert.Equal(t, "test-issuer", claims.RegisteredClaims.Issuer)
		assert.Equal(t, jwt.ClaimStrings{"test:audience"}, claims.RegisteredClaims.Audience)
		assert.NotEmpty(t, claims.RegisteredClaims.ID)
		assert.Equal(t, "administrator", claims.UserRole)
		assert.Equal(t, "test@example.com", claims.UserEmail)
	})

	t.Run("Failed login - wrong password", func(t *testing.T) {
		mockProvider.On("VerifyIdentity", ctx, "bad@example.com", "wrongpassword").
			Return(nil, auth.ErrMismatchedHashAndPassword).Once()

		token, err := authenticator.Login(ctx, "bad@example.com", "wrongpassword")

		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
		assert.Empty(t, token)
	})

	t.Run("Failed login - unknown account is indistinguishable", func(t *testing.T) {
		mockProvider.On("VerifyIdentity", ctx, "unknown@example.com", "password123").
			Return(nil, auth.ErrMismatchedHashAndPassword).Once()
		mockProvider.On("VerifyIdentity", ctx, "known@example.com", "wrong").
			Return(nil, auth.ErrMismatchedHashAndPassword).Once()

		_, errUnknown := authenticator.Login(ctx, "unknown@example.com", "password123")
		_, errWrongPwd := authenticator.Login(ctx, "known@example.com", "wrong")

		require.Error(t, errUnknown)
		require.Error(t, errWrongPwd)
		assert.Equal(t, errUnknown.Error(), errWrongPwd.Error())
	})

	t.Run("Nil identity yields credentials error", func(t *testing.T) {
		mockProvider.On("VerifyIdentity", ctx, "ghost@example.com", "password123").
			Return(nil, nil).Once()

		token, err := authenticator.Login(ctx, "ghost@example.com", "password123")

		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
		assert.Empty(t, token)
	})

	t.Run("Login emits activity events", func(t *testing.T) {
		sink := &RecordingActivitySink{}
		provider := new(MockIdentityProvider)
		auther := auth.NewAuthenticator(provider, newMockConfig()).WithActivitySink(sink)

		identity := TestIdentity{id: uuid.New().String(), email: "a@example.com", role: "developer"}
		provider.On("VerifyIdentity", ctx, "a@example.com", "pw").Return(identity, nil).Once()
		provider.On("VerifyIdentity", ctx, "a@example.com", "bad").
			Return(nil, auth.ErrMismatchedHashAndPassword).Once()

		_, err := auther.Login(ctx, "a@example.com", "pw")
		require.NoError(t, err)

		_, err = auther.Login(ctx, "a@example.com", "bad")
		require.Error(t, err)

		require.Len(t, sink.Events, 2)
		assert.Equal(t, auth.ActivityEventLoginSuccess, sink.Events[0].EventType)
		assert.Equal(t, auth.ActivityEventLoginFailure, sink.Events[1].EventType)
	})
}

func TestImpersonate(t *testing.T) {
	ctx := context.Background()
	mockProvider := new(MockIdentityProvider)
	authenticator := auth.NewAuthenticator(mockProvider, newMockConfig())

	t.Run("issues a token without a password", func(t *testing.T) {
		identity := TestIdentity{
			id:    uuid.New().String(),
			email: "support@example.com",
			role:  "developer",
		}

		mockProvider.On("FindIdentityByIdentifier", ctx, "support@example.com").
			Return(identity, nil).Once()

		token, err := authenticator.Impersonate(ctx, "support@example.com")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		claims, err := authenticator.TokenService().Validate(token)
		require.NoError(t, err)
		assert.Equal(t, identity.ID(), claims.UserID())
	})

	t.Run("unknown identifier fails", func(t *testing.T) {
		mockProvider.On("FindIdentityByIdentifier", ctx, "nobody@example.com").
			Return(nil, auth.ErrIdentityNotFound).Once()

		token, err := authenticator.Impersonate(ctx, "nobody@example.com")

		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
		assert.Empty(t, token)
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	issueToken := func(t *testing.T, auther *auth.Auther, identity auth.Identity) string {
		t.Helper()
		token, err := auther.TokenService().Generate(identity)
		require.NoError(t, err)
		return token
	}

	t.Run("re-reads the live identity", func(t *testing.T) {
		mockProvider := new(MockIdentityProvider)
		auther := auth.NewAuthenticator(mockProvider, newMockConfig())

		id := uuid.New().String()
		atIssuance := TestIdentity{id: id, email: "dev@example.com", role: "leader"}
		token := issueToken(t, auther, atIssuance)

		// role changed after the token was minted
		current := TestIdentity{id: id, email: "dev@example.com", role: "developer"}
		mockProvider.On("FindIdentityByID", ctx, id).Return(current, nil).Once()

		identity, err := auther.Authenticate(ctx, token)

		require.NoError(t, err)
		assert.Equal(t, "developer", identity.Role())
		mockProvider.AssertExpectations(t)
	})

	t.Run("vanished identity fails even with a valid token", func(t *testing.T) {
		mockProvider := new(MockIdentityProvider)
		auther := auth.NewAuthenticator(mockProvider, newMockConfig())

		id := uuid.New().String()
		token := issueToken(t, auther, TestIdentity{id: id, email: "gone@example.com", role: "developer"})

		mockProvider.On("FindIdentityByID", ctx, id).
			Return(nil, goerrors.New("user not found", goerrors.CategoryNotFound)).Once()

		identity, err := auther.Authenticate(ctx, token)

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})

	t.Run("repository record-not-found maps to unknown identity", func(t *testing.T) {
		mockProvider := new(MockIdentityProvider)
		auther := auth.NewAuthenticator(mockProvider, newMockConfig())

		id := uuid.New().String()
		token := issueToken(t, auther, TestIdentity{id: id, email: "gone@example.com", role: "developer"})

		// the store layer reports misses with its own category, not
		// CategoryNotFound
		mockProvider.On("FindIdentityByID", ctx, id).
			Return(nil, repository.NewRecordNotFound()).Once()

		identity, err := auther.Authenticate(ctx, token)

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})

	t.Run("store failure does not authenticate", func(t *testing.T) {
		mockProvider := new(MockIdentityProvider)
		auther := auth.NewAuthenticator(mockProvider, newMockConfig())

		id := uuid.New().String()
		token := issueToken(t, auther, TestIdentity{id: id, email: "dev@example.com", role: "developer"})

		mockProvider.On("FindIdentityByID", ctx, id).
			Return(nil, errors.New("connection refused")).Once()

		identity, err := auther.Authenticate(ctx, token)

		assert.Nil(t, identity)
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrIdentityNotFound)
	})

	t.Run("invalid token never reaches the store", func(t *testing.T) {
		mockProvider := new(MockIdentityProvider)
		auther := auth.NewAuthenticator(mockProvider, newMockConfig())

		identity, err := auther.Authenticate(ctx, "garbage")

		assert.Nil(t, identity)
		assert.True(t, auth.IsMalformedError(err))
		mockProvider.AssertNotCalled(t, "FindIdentityByID")
	})
}

func TestSessionFromToken(t *testing.T) {
	mockProvider := new(MockIdentityProvider)
	auther := auth.NewAuthenticator(mockProvider, newMockConfig())

	t.Run("builds a session projection from claims", func(t *testing.T) {
		id := uuid.New().String()
		identity := TestIdentity{id: id, email: "dev@example.com", role: "leader"}

		token, err := auther.TokenService().Generate(identity)
		require.NoError(t, err)

		session, err := auther.SessionFromToken(token)

		require.NoError(t, err)
		assert.Equal(t, id, session.GetUserID())
		assert.Equal(t, "test-issuer", session.GetIssuer())

		userUUID, err := session.GetUserUUID()
		require.NoError(t, err)
		assert.Equal(t, id, userUUID.String())
		assert.True(t, auth.HasUserUUID(session))

		data := session.GetData()
		assert.Equal(t, "leader", data["role"])
		assert.Equal(t, "dev@example.com", data["email"])
	})

	t.Run("propagates token errors", func(t *testing.T) {
		session, err := auther.SessionFromToken("garbage")

		assert.Nil(t, session)
		assert.True(t, auth.IsMalformedError(err))
	})
}

func TestClaimsDecorator(t *testing.T) {
	ctx := context.Background()

	t.Run("decorator enriches extension claims", func(t *testing.T) {
		mockProvider := new(MockIdentityProvider)
		auther := auth.NewAuthenticator(mockProvider, newMockConfig()).
			WithClaimsDecorator(auth.ClaimsDecoratorFunc(func(ctx context.Context, identity auth.Identity, claims *auth.JWTClaims) error {
				claims.Scopes = append(claims.Scopes, "reports:read")
				return nil
			}))

		identity := TestIdentity{id: uuid.New().String(), email: "dev@example.com", role: "developer"}
		mockProvider.On("VerifyIdentity", ctx, identity.email, "pw").Return(identity, nil).Once()

		token, err := auther.Login(ctx, identity.email, "pw")
		require.NoError(t, err)

		parsed, err := jwt.ParseWithClaims(token, &auth.JWTClaims{}, func(t *jwt.Token) (any, error) {
			return []byte("test-signing-key"), nil
		})
		require.NoError(t, err)

		claims := parsed.Claims.(*auth.JWTClaims)
		assert.Equal(t, []string{"reports:read"}, claims.Scopes)
	})

	t.Run("decorator cannot rewrite identity claims", func(t *testing.T) {
		mockProvider := new(MockIdentityProvider)
		auther := auth.NewAuthenticator(mockProvider, newMockConfig()).
			WithClaimsDecorator(auth.ClaimsDecoratorFunc(func(ctx context.Context, identity auth.Identity, claims *auth.JWTClaims) error {
				claims.UserRole = "administrator"
				return nil
			}))

		identity := TestIdentity{id: uuid.New().String(), email: "dev@example.com", role: "developer"}
		mockProvider.On("VerifyIdentity", ctx, identity.email, "pw").Return(identity, nil).Once()

		token, err := auther.Login(ctx, identity.email, "pw")

		assert.Error(t, err)
		assert.Empty(t, token)
	})
}
