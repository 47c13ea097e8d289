package auth_test

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"

	auth "github.com/taskmesh/go-auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupRepositoryManager(t *testing.T) (auth.RepositoryManager, *bun.DB) {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	migrations := auth.GetMigrationsFS()
	entries, err := fs.ReadDir(migrations, "data/sql/migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		content, err := fs.ReadFile(migrations, "data/sql/migrations/"+entry.Name())
		require.NoError(t, err)

		_, err = bunDB.Exec(string(content))
		require.NoError(t, err, "migration %s failed", entry.Name())
	}

	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	repo := auth.NewRepositoryManager(bunDB)
	require.NoError(t, repo.Validate())

	return repo, bunDB
}

func seedUser(t *testing.T, repo auth.RepositoryManager, role auth.UserRole, email string) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword("let-me-in-please")
	require.NoError(t, err)

	user, err := repo.Users().Register(context.Background(), &auth.User{
		FirstName:    "Test",
		LastName:     string(role),
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)

	return user
}

func seedProject(t *testing.T, repo auth.RepositoryManager, leaderID *uuid.UUID, members ...uuid.UUID) *auth.Project {
	t.Helper()

	ctx := context.Background()
	project, err := repo.Projects().Create(ctx, &auth.Project{
		ID:       uuid.New(),
		Name:     "apollo-" + uuid.NewString()[:8],
		LeaderID: leaderID,
	})
	require.NoError(t, err)

	for _, member := range members {
		require.NoError(t, repo.Projects().AddMember(ctx, project.ID, member))
	}

	return project
}

func TestRegisterAndLoginFlow(t *testing.T) {
	repo, _ := setupRepositoryManager(t)
	ctx := context.Background()

	sink := &RecordingActivitySink{}
	handler := auth.NewRegisterUserHandler(repo).WithActivitySink(sink)

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "difference-engine-2",
	})
	require.NoError(t, err)

	require.Len(t, sink.Events, 1)
	assert.Equal(t, auth.ActivityEventUserRegistered, sink.Events[0].EventType)

	t.Run("password hash never leaks through the default read", func(t *testing.T) {
		record, err := repo.Users().GetByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Empty(t, record.PasswordHash)
		assert.Equal(t, auth.RoleDeveloper, record.Role)

		withSecret, err := repo.Users().GetByEmailWithSecret(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, withSecret.PasswordHash)
		assert.NotEqual(t, "difference-engine-2", withSecret.PasswordHash)
	})

	provider := auth.NewUserProvider(repo.Users())
	authenticator := auth.NewAuthenticator(provider, newMockConfig())

	t.Run("login issues a verifiable token", func(t *testing.T) {
		token, err := authenticator.Login(ctx, "ada@example.com", "difference-engine-2")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		identity, err := authenticator.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", identity.Email())
		assert.Equal(t, auth.RoleDeveloper, identity.Role())
	})

	t.Run("email lookup ignores case and surrounding whitespace", func(t *testing.T) {
		token, err := authenticator.Login(ctx, "  ADA@Example.COM  ", "difference-engine-2")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, err := authenticator.Login(ctx, "ada@example.com", "analytical-engine")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("duplicate email registration fails", func(t *testing.T) {
		err := handler.Execute(ctx, auth.RegisterUserMessage{
			FirstName: "Ada",
			LastName:  "Byron",
			Email:     "ada@example.com",
			Password:  "difference-engine-2",
		})
		require.Error(t, err)
	})

	t.Run("case variant of an existing email is rejected", func(t *testing.T) {
		// uniqueness is enforced on LOWER(email), matching the lookups
		err := handler.Execute(ctx, auth.RegisterUserMessage{
			FirstName: "Ada",
			LastName:  "Byron",
			Email:     "Ada@Example.com",
			Password:  "difference-engine-2",
		})
		require.Error(t, err)

		record, err := repo.Users().GetByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Ada", record.FirstName)
	})
}

func TestAuthenticateReflectsRoleChanges(t *testing.T) {
	repo, bunDB := setupRepositoryManager(t)
	ctx := context.Background()

	user := seedUser(t, repo, auth.RoleDeveloper, "grace@example.com")

	provider := auth.NewUserProvider(repo.Users())
	authenticator := auth.NewAuthenticator(provider, newMockConfig())

	token, err := authenticator.Login(ctx, "grace@example.com", "let-me-in-please")
	require.NoError(t, err)

	identity, err := authenticator.Authenticate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, auth.RoleDeveloper, identity.Role())

	_, err = repo.Users().UpdateRole(ctx, user.ID, auth.RoleLeader)
	require.NoError(t, err)

	// same token, new role: authentication re-reads the record
	identity, err = authenticator.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleLeader, identity.Role())

	t.Run("role update leaves the rest of the record alone", func(t *testing.T) {
		record, err := repo.Users().FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "grace@example.com", record.Email)
		assert.Equal(t, user.FirstName, record.FirstName)

		// the stored hash still verifies
		_, err = authenticator.Login(ctx, "grace@example.com", "let-me-in-please")
		require.NoError(t, err)
	})

	t.Run("deleted account invalidates outstanding tokens", func(t *testing.T) {
		// soft delete keeps the row but hides it from every lookup
		_, err := bunDB.NewDelete().
			Model((*auth.User)(nil)).
			Where("id = ?", user.ID).
			Exec(ctx)
		require.NoError(t, err)

		_, err = authenticator.Authenticate(ctx, token)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})
}

func TestLoginAttemptTracking(t *testing.T) {
	repo, _ := setupRepositoryManager(t)
	ctx := context.Background()

	user := seedUser(t, repo, auth.RoleDeveloper, "alan@example.com")

	provider := auth.NewUserProvider(repo.Users())
	authenticator := auth.NewAuthenticator(provider, newMockConfig())

	for i := 0; i < 2; i++ {
		_, err := authenticator.Login(ctx, "alan@example.com", "wrong-password")
		require.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	}

	record, err := repo.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, record.LoginAttempts)
	assert.NotNil(t, record.LoginAttemptAt)

	// tracking only touches the counter columns
	assert.Equal(t, "alan@example.com", record.Email)
	assert.Equal(t, auth.RoleDeveloper, record.Role)
	withSecret, err := repo.Users().GetByEmailWithSecret(ctx, "alan@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, withSecret.PasswordHash)

	// a successful login clears the failure counters
	_, err = authenticator.Login(ctx, "alan@example.com", "let-me-in-please")
	require.NoError(t, err)

	record, err = repo.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, record.LoginAttempts)
	assert.Nil(t, record.LoginAttemptAt)
	assert.NotNil(t, record.LoggedInAt)

	t.Run("repeated failures trip the cooldown", func(t *testing.T) {
		for i := 0; i <= auth.MaxLoginAttempts; i++ {
			_, err := authenticator.Login(ctx, "alan@example.com", "wrong-password")
			require.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
		}

		// even the right password is refused while cooling down
		_, err := authenticator.Login(ctx, "alan@example.com", "let-me-in-please")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrTooManyLoginAttempts)
	})
}

func TestAuthorizerAgainstRepositories(t *testing.T) {
	repo, _ := setupRepositoryManager(t)
	ctx := context.Background()

	admin := seedUser(t, repo, auth.RoleAdministrator, "root@example.com")
	leader := seedUser(t, repo, auth.RoleLeader, "lead@example.com")
	member := seedUser(t, repo, auth.RoleDeveloper, "dev@example.com")
	outsider := seedUser(t, repo, auth.RoleDeveloper, "visitor@example.com")

	project := seedProject(t, repo, &leader.ID, member.ID)

	authorizer := auth.NewAuthorizer(repo.Projects(), repo.Comments())

	adminID := identityFor(admin)
	leaderID := identityFor(leader)
	memberID := identityFor(member)
	outsiderID := identityFor(outsider)

	t.Run("leader leads and belongs", func(t *testing.T) {
		ok, err := authorizer.IsProjectLeader(ctx, leaderID, project.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = authorizer.IsProjectMember(ctx, leaderID, project.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("member belongs but does not lead", func(t *testing.T) {
		ok, err := authorizer.IsProjectLeader(ctx, memberID, project.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = authorizer.CanAccessProject(ctx, memberID, project.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("outsider gets nothing", func(t *testing.T) {
		ok, err := authorizer.IsProjectMember(ctx, outsiderID, project.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("administrator passes every check", func(t *testing.T) {
		ok, err := authorizer.IsProjectLeader(ctx, adminID, project.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = authorizer.CanAccessProject(ctx, adminID, project.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown project denies without an error", func(t *testing.T) {
		ok, err := authorizer.IsProjectMember(ctx, leaderID, uuid.New())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("vacating the leader seat revokes leadership", func(t *testing.T) {
		require.NoError(t, repo.Projects().AddMember(ctx, project.ID, leader.ID))

		_, err := repo.Projects().SetLeader(ctx, project.ID, nil)
		require.NoError(t, err)

		ok, err := authorizer.IsProjectLeader(ctx, leaderID, project.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		// the explicit membership row keeps the former leader on the project
		ok, err = authorizer.IsProjectMember(ctx, leaderID, project.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestCommentOwnershipAgainstRepositories(t *testing.T) {
	repo, _ := setupRepositoryManager(t)
	ctx := context.Background()

	admin := seedUser(t, repo, auth.RoleAdministrator, "root@example.com")
	author := seedUser(t, repo, auth.RoleDeveloper, "author@example.com")
	other := seedUser(t, repo, auth.RoleDeveloper, "other@example.com")

	project := seedProject(t, repo, &author.ID, other.ID)

	task, err := repo.Tasks().Create(ctx, &auth.Task{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Title:     "wire up the release pipeline",
	})
	require.NoError(t, err)

	comment, err := repo.Comments().Create(ctx, &auth.Comment{
		ID:       uuid.New(),
		TaskID:   task.ID,
		AuthorID: author.ID,
		Body:     "needs a retry budget before we ship",
	})
	require.NoError(t, err)

	authorizer := auth.NewAuthorizer(repo.Projects(), repo.Comments())

	ok, err := authorizer.CanModifyComment(ctx, identityFor(author), comment.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = authorizer.CanModifyComment(ctx, identityFor(other), comment.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = authorizer.CanModifyComment(ctx, identityFor(admin), comment.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("missing comment denies without an error", func(t *testing.T) {
		ok, err := authorizer.CanModifyComment(ctx, identityFor(author), uuid.New())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestProjectMembershipManagement(t *testing.T) {
	repo, _ := setupRepositoryManager(t)
	ctx := context.Background()

	leader := seedUser(t, repo, auth.RoleLeader, "lead@example.com")
	dev := seedUser(t, repo, auth.RoleDeveloper, "dev@example.com")

	project := seedProject(t, repo, &leader.ID)

	require.NoError(t, repo.Projects().AddMember(ctx, project.ID, dev.ID))
	// adding the same member twice is a no-op
	require.NoError(t, repo.Projects().AddMember(ctx, project.ID, dev.ID))

	relations, err := repo.Projects().GetProjectRelations(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, relations.MemberIDs, 1)
	assert.True(t, relations.IsMember(dev.ID))
	assert.True(t, relations.IsLeader(leader.ID))

	require.NoError(t, repo.Projects().RemoveMember(ctx, project.ID, dev.ID))

	relations, err = repo.Projects().GetProjectRelations(ctx, project.ID)
	require.NoError(t, err)
	assert.False(t, relations.IsMember(dev.ID))

	t.Run("loading a project hydrates its member list", func(t *testing.T) {
		require.NoError(t, repo.Projects().AddMember(ctx, project.ID, dev.ID))

		loaded, err := repo.Projects().GetByIDWithMembers(ctx, project.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Members, 1)
		assert.Equal(t, dev.ID, loaded.Members[0].ID)
	})
}

func identityFor(user *auth.User) TestIdentity {
	return TestIdentity{
		id:    user.ID.String(),
		email: user.Email,
		role:  string(user.Role),
	}
}
