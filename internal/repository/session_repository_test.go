package repository

// Integration tests against a live neo4j. They skip unless NEO4J_HOST is
// set; there is no in-process neo4j substitute to mock the driver against.
// Each test works in its own throwaway users to stay parallel-safe.

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/graph-user-auth/internal/auth"
	"github.com/iliyamo/graph-user-auth/internal/database"
	"github.com/iliyamo/graph-user-auth/internal/model"
)

func integrationSetup(t *testing.T) (neo4j.DriverWithContext, string) {
	t.Helper()
	host := os.Getenv("NEO4J_HOST")
	if host == "" {
		t.Skip("NEO4J_HOST not set; skipping neo4j integration test")
	}
	port := os.Getenv("NEO4J_PORT")
	if port == "" {
		port = "7687"
	}
	db := os.Getenv("USERS_DB")
	if db == "" {
		db = "neo4j"
	}

	driver, err := database.Open(host, port, os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PWD"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close(context.Background()) })

	require.NoError(t, database.InitSchema(context.Background(), driver, db))
	return driver, db
}

func seedIntegrationUser(t *testing.T, users *UserRepo, email string) *model.User {
	t.Helper()
	u, err := users.Create(context.Background(), model.User{Email: email, Auth: auth.RoleContributor}, "Sup3rSecret", 4)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = users.Delete(context.Background(), u.ID) })
	return u
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@integration.test", prefix, time.Now().UnixNano())
}

func TestSessionRoundTrip(t *testing.T) {
	driver, db := integrationSetup(t)
	users := NewUserRepo(driver, db)
	sessions := NewSessionRepo(driver, db, 1)
	ctx := context.Background()

	u := seedIntegrationUser(t, users, uniqueEmail("roundtrip"))

	token, err := auth.GenerateToken(auth.TokenBytes)
	require.NoError(t, err)

	created, err := sessions.Create(ctx, token, u.Email, "host-1", "agent-1")
	require.NoError(t, err)
	assert.Equal(t, auth.HashToken(token), created.ID)
	assert.Equal(t, u.ID, created.UserID)

	session, owner, err := sessions.FindByToken(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.NotNil(t, owner)
	assert.Equal(t, created.ID, session.ID)
	assert.Equal(t, u.ID, owner.ID)
	assert.Equal(t, "host-1", session.Host)
	assert.Equal(t, "agent-1", session.UserAgent)
}

func TestSessionCreate_UnknownUser(t *testing.T) {
	driver, db := integrationSetup(t)
	sessions := NewSessionRepo(driver, db, 1)

	_, err := sessions.Create(context.Background(), "some-token", uniqueEmail("ghost"), "", "")
	assert.Error(t, err)
}

func TestSessionFindByToken_EmptyToken(t *testing.T) {
	driver, db := integrationSetup(t)
	sessions := NewSessionRepo(driver, db, 1)

	session, user, err := sessions.FindByToken(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Nil(t, user)
}

func TestSessionInvalidate_Idempotent(t *testing.T) {
	driver, db := integrationSetup(t)
	users := NewUserRepo(driver, db)
	sessions := NewSessionRepo(driver, db, 1)
	ctx := context.Background()

	u := seedIntegrationUser(t, users, uniqueEmail("invalidate"))
	token, err := auth.GenerateToken(auth.TokenBytes)
	require.NoError(t, err)
	created, err := sessions.Create(ctx, token, u.Email, "", "")
	require.NoError(t, err)

	require.NoError(t, sessions.Invalidate(ctx, created.ID))
	require.NoError(t, sessions.Invalidate(ctx, created.ID)) // second call is a no-op

	session, user, err := sessions.FindByToken(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Nil(t, user)
}

func TestSessionExpiry_SweptOnRead(t *testing.T) {
	driver, db := integrationSetup(t)
	users := NewUserRepo(driver, db)
	sessions := NewSessionRepo(driver, db, 1)
	ctx := context.Background()

	u := seedIntegrationUser(t, users, uniqueEmail("expiry"))
	token, err := auth.GenerateToken(auth.TokenBytes)
	require.NoError(t, err)
	_, err = sessions.Create(ctx, token, u.Email, "", "")
	require.NoError(t, err)

	// Move the repo's clock past the expiry; the lookup must delete the
	// session and report absence.
	sessions.now = func() time.Time { return time.Now().AddDate(0, 0, 2) }

	session, user, err := sessions.FindByToken(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Nil(t, user)

	// Gone for good, even at the original clock.
	sessions.now = time.Now
	session, user, err = sessions.FindByToken(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Nil(t, user)
}

func TestSessionInvalidateAll(t *testing.T) {
	driver, db := integrationSetup(t)
	users := NewUserRepo(driver, db)
	sessions := NewSessionRepo(driver, db, 1)
	ctx := context.Background()

	u := seedIntegrationUser(t, users, uniqueEmail("invalidate-all"))
	var tokens []string
	for i := 0; i < 3; i++ {
		token, err := auth.GenerateToken(auth.TokenBytes)
		require.NoError(t, err)
		_, err = sessions.Create(ctx, token, u.Email, fmt.Sprintf("host-%d", i), "agent")
		require.NoError(t, err)
		tokens = append(tokens, token)
	}

	require.NoError(t, sessions.InvalidateAll(ctx, u.Email))

	for _, token := range tokens {
		session, _, err := sessions.FindByToken(ctx, token)
		require.NoError(t, err)
		assert.Nil(t, session)
	}
}

func TestFindActiveSessionID(t *testing.T) {
	driver, db := integrationSetup(t)
	users := NewUserRepo(driver, db)
	sessions := NewSessionRepo(driver, db, 1)
	ctx := context.Background()

	u := seedIntegrationUser(t, users, uniqueEmail("active"))
	token, err := auth.GenerateToken(auth.TokenBytes)
	require.NoError(t, err)
	created, err := sessions.Create(ctx, token, u.Email, "host-a", "agent-a")
	require.NoError(t, err)

	id, err := sessions.FindActiveSessionID(ctx, u.Email, "host-a", "agent-a")
	require.NoError(t, err)
	assert.Equal(t, created.ID, id)

	// A different client context finds nothing.
	id, err = sessions.FindActiveSessionID(ctx, u.Email, "host-b", "agent-a")
	require.NoError(t, err)
	assert.Empty(t, id)
}
