package repository

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/iliyamo/graph-user-auth/internal/apperr"
	"github.com/iliyamo/graph-user-auth/internal/auth"
	"github.com/iliyamo/graph-user-auth/internal/model"
)

// SessionRepo stores sessions as (:User)-[:HAS_SESSION {sessionId}]->(:Session)
// relationships. Expiry is enforced lazily: an expired session found during
// lookup is deleted on the spot and reported as absent; there is no
// background reaper.
type SessionRepo struct {
	Driver neo4j.DriverWithContext
	DB     string
	Days   int // session lifetime in days

	// now is swappable in tests; defaults to time.Now.
	now func() time.Time
}

func NewSessionRepo(driver neo4j.DriverWithContext, db string, days int) *SessionRepo {
	return &SessionRepo{Driver: driver, DB: db, Days: days, now: time.Now}
}

// expiresAt is stored as an RFC3339 string so lookups stay independent of
// server-side temporal types.
const timeLayout = time.RFC3339Nano

func (r *SessionRepo) Create(ctx context.Context, token, email, host, userAgent string) (*model.Session, error) {
	sessionID := auth.HashToken(token)
	expiresAt := r.now().UTC().AddDate(0, 0, r.Days)

	sess := r.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.DB})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		`MATCH (u:User {email: $email})
		 CREATE (u)-[:HAS_SESSION {sessionId: $sessionId}]->(s:Session {expiresAt: $expiresAt, host: $host, userAgent: $userAgent})
		 RETURN u`,
		map[string]any{
			"email":     email,
			"sessionId": sessionID,
			"expiresAt": expiresAt.Format(timeLayout),
			"host":      host,
			"userAgent": userAgent,
		})
	if err != nil {
		return nil, apperr.Storage(apperr.OpCreateSession, err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, apperr.Storage(apperr.OpCreateSession, err)
	}
	if len(records) == 0 {
		// No such user; the caller decides the response.
		return nil, apperr.ErrNotFound
	}

	user, err := userFromRecord(records[0], "u")
	if err != nil {
		return nil, apperr.Storage(apperr.OpCreateSession, err)
	}

	return &model.Session{
		ID:        sessionID,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
		Host:      host,
		UserAgent: userAgent,
	}, nil
}

func (r *SessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, *model.User, error) {
	if token == "" {
		return nil, nil, nil
	}
	sessionID := auth.HashToken(token)

	sess := r.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.DB})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		`MATCH (u:User)-[rel:HAS_SESSION {sessionId: $sessionId}]->(s:Session) RETURN u, rel, s`,
		map[string]any{"sessionId": sessionID})
	if err != nil {
		return nil, nil, apperr.Storage(apperr.OpValidateSession, err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, nil, apperr.Storage(apperr.OpValidateSession, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	user, err := userFromRecord(records[0], "u")
	if err != nil {
		return nil, nil, apperr.Storage(apperr.OpValidateSession, err)
	}
	session, err := sessionFromRecord(records[0], sessionID, user.ID)
	if err != nil {
		return nil, nil, apperr.Storage(apperr.OpValidateSession, err)
	}

	if session.Expired(r.now().UTC()) {
		if err := r.Invalidate(ctx, session.ID); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}
	return session, user, nil
}

func (r *SessionRepo) Invalidate(ctx context.Context, sessionID string) error {
	sess := r.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.DB})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		`MATCH (:User)-[rel:HAS_SESSION {sessionId: $sessionId}]->(s:Session) DETACH DELETE s`,
		map[string]any{"sessionId": sessionID})
	if err == nil {
		_, err = result.Consume(ctx)
	}
	if err != nil {
		return apperr.Storage(apperr.OpInvalidateSession, err)
	}
	return nil
}

func (r *SessionRepo) InvalidateAll(ctx context.Context, email string) error {
	sess := r.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.DB})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		`MATCH (u:User {email: $email})-[rel:HAS_SESSION]->(s:Session) DETACH DELETE s`,
		map[string]any{"email": email})
	if err == nil {
		_, err = result.Consume(ctx)
	}
	if err != nil {
		return apperr.Storage(apperr.OpInvalidateAll, err)
	}
	return nil
}

func (r *SessionRepo) FindActiveSessionID(ctx context.Context, email, host, userAgent string) (string, error) {
	sess := r.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.DB})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		`MATCH (u:User {email: $email})-[rel:HAS_SESSION]->(s:Session {host: $host, userAgent: $userAgent})
		 RETURN rel.sessionId AS sessionId LIMIT 1`,
		map[string]any{"email": email, "host": host, "userAgent": userAgent})
	if err != nil {
		return "", apperr.Storage(apperr.OpCheckExistingSession, err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return "", apperr.Storage(apperr.OpCheckExistingSession, err)
	}
	if len(records) == 0 {
		return "", nil
	}
	id, _ := records[0].Get("sessionId")
	s, _ := id.(string)
	return s, nil
}

// sessionFromRecord reads the Session node properties out of a lookup
// record. sessionID comes from the relationship key and userID from the
// owning node, matching how the graph splits the data.
func sessionFromRecord(record *neo4j.Record, sessionID, userID string) (*model.Session, error) {
	v, ok := record.Get("s")
	if !ok {
		return nil, errMissingAlias("s")
	}
	node, ok := v.(neo4j.Node)
	if !ok {
		return nil, errNotANode("s")
	}

	expiresAt, err := time.Parse(timeLayout, strProp(node.Props, "expiresAt"))
	if err != nil {
		return nil, err
	}
	return &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		Host:      strProp(node.Props, "host"),
		UserAgent: strProp(node.Props, "userAgent"),
	}, nil
}
