package database

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Open connects to neo4j over bolt and verifies the connection before
// returning the driver. The driver is long-lived and shared; individual
// operations open their own sessions against it.
func Open(host, port, user, pass string) (neo4j.DriverWithContext, error) {
	uri := fmt.Sprintf("bolt://%s:%s", host, port)

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, pass, ""))
	if err != nil {
		return nil, err
	}

	// Verify with timeout so a dead server fails startup fast.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return driver, nil
}

// InitSchema provisions the uniqueness constraints the data model relies on:
// User.id and User.email on nodes, and sessionId on the HAS_SESSION
// relationship. All statements are idempotent (IF NOT EXISTS) so restarts
// are safe.
func InitSchema(ctx context.Context, driver neo4j.DriverWithContext, db string) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: db})
	defer session.Close(ctx)

	stmts := []string{
		`CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
		`CREATE CONSTRAINT user_email_unique IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE`,
		`CREATE CONSTRAINT session_id_unique IF NOT EXISTS FOR ()-[r:HAS_SESSION]-() REQUIRE r.sessionId IS UNIQUE`,
	}
	for _, stmt := range stmts {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
