package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/iliyamo/graph-user-auth/internal/apperr"
	"github.com/iliyamo/graph-user-auth/internal/model"
	"github.com/iliyamo/graph-user-auth/internal/utils"
)

// UserRepo stores users as :User nodes keyed by a generated uuid and a
// unique email.
type UserRepo struct {
	Driver neo4j.DriverWithContext
	DB     string
}

func NewUserRepo(driver neo4j.DriverWithContext, db string) *UserRepo {
	return &UserRepo{Driver: driver, DB: db}
}

func (r *UserRepo) Create(ctx context.Context, u model.User, password string, bcryptCost int) (*model.User, error) {
	hash, err := utils.HashPassword(password, bcryptCost)
	if err != nil {
		return nil, apperr.Storage(apperr.OpCreateUser, err)
	}

	// Optional name fields are only written when present so absent
	// properties stay absent on the node.
	props := []string{"id: $id", "email: $email", "auth: $auth", "pwd: $pwd"}
	params := map[string]any{
		"id":    uuid.NewString(),
		"email": u.Email,
		"auth":  u.Auth,
		"pwd":   hash,
	}
	if u.FirstName != "" {
		props = append(props, "firstName: $firstName")
		params["firstName"] = u.FirstName
	}
	if u.SecondName != "" {
		props = append(props, "secondName: $secondName")
		params["secondName"] = u.SecondName
	}
	if u.LastName != "" {
		props = append(props, "lastName: $lastName")
		params["lastName"] = u.LastName
	}

	sess := r.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.DB})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		fmt.Sprintf(`CREATE (u:User {%s}) RETURN u`, strings.Join(props, ", ")), params)
	var records []*neo4j.Record
	if err == nil {
		records, err = result.Collect(ctx)
	}
	if err != nil {
		if strings.Contains(err.Error(), "ConstraintValidationFailed") {
			return nil, apperr.ErrUnprocessable // duplicate email
		}
		return nil, apperr.Storage(apperr.OpCreateUser, err)
	}
	if len(records) != 1 {
		return nil, apperr.ErrUnprocessable
	}
	return userFromRecord(records[0], "u")
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, `MATCH (u:User {id: $v}) RETURN u`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `MATCH (u:User {email: $v}) RETURN u`, email)
}

func (r *UserRepo) getOne(ctx context.Context, cypher, value string) (*model.User, error) {
	sess := r.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.DB})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, cypher, map[string]any{"v": value})
	var records []*neo4j.Record
	if err == nil {
		records, err = result.Collect(ctx)
	}
	if err != nil {
		return nil, apperr.Storage(apperr.OpGetUser, err)
	}
	if len(records) != 1 {
		return nil, apperr.ErrNotFound
	}
	return userFromRecord(records[0], "u")
}

func (r *UserRepo) Update(ctx context.Context, id string, updates model.UserUpdates, bcryptCost int) (*model.User, error) {
	if updates.Empty() {
		return nil, apperr.ErrUnprocessable
	}

	var sets []string
	params := map[string]any{"id": id}

	if updates.Password != nil {
		hash, err := utils.HashPassword(*updates.Password, bcryptCost)
		if err != nil {
			return nil, apperr.Storage(apperr.OpUpdateUser, err)
		}
		sets = append(sets, "u.pwd = $pwd")
		params["pwd"] = hash
	}
	if updates.Email != nil {
		sets = append(sets, "u.email = $email")
		params["email"] = *updates.Email
	}
	if updates.Auth != nil {
		sets = append(sets, "u.auth = $auth")
		params["auth"] = *updates.Auth
	}
	if updates.FirstName != nil {
		sets = append(sets, "u.firstName = $firstName")
		params["firstName"] = *updates.FirstName
	}
	if updates.SecondName != nil {
		sets = append(sets, "u.secondName = $secondName")
		params["secondName"] = *updates.SecondName
	}
	if updates.LastName != nil {
		sets = append(sets, "u.lastName = $lastName")
		params["lastName"] = *updates.LastName
	}

	sess := r.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.DB})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		fmt.Sprintf(`MATCH (u:User {id: $id}) SET %s RETURN u`, strings.Join(sets, ", ")), params)
	var records []*neo4j.Record
	if err == nil {
		records, err = result.Collect(ctx)
	}
	if err != nil {
		if strings.Contains(err.Error(), "ConstraintValidationFailed") {
			return nil, apperr.ErrUnprocessable // email taken
		}
		return nil, apperr.Storage(apperr.OpUpdateUser, err)
	}
	if len(records) != 1 {
		return nil, apperr.ErrUnprocessable
	}
	return userFromRecord(records[0], "u")
}

func (r *UserRepo) Delete(ctx context.Context, id string) (*model.User, error) {
	sess := r.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.DB})
	defer sess.Close(ctx)

	// DETACH DELETE cascades: the HAS_SESSION relationships and their
	// Session nodes go with the user.
	result, err := sess.Run(ctx,
		`MATCH (u:User {id: $id})
		 OPTIONAL MATCH (u)-[:HAS_SESSION]->(s:Session)
		 WITH u, properties(u) AS p, collect(s) AS sessions
		 FOREACH (x IN sessions | DETACH DELETE x)
		 DETACH DELETE u
		 RETURN p`,
		map[string]any{"id": id})
	var records []*neo4j.Record
	if err == nil {
		records, err = result.Collect(ctx)
	}
	if err != nil {
		return nil, apperr.Storage(apperr.OpDeleteUser, err)
	}
	if len(records) != 1 {
		return nil, apperr.ErrUnprocessable
	}
	propsVal, _ := records[0].Get("p")
	props, ok := propsVal.(map[string]any)
	if !ok {
		return nil, apperr.Storage(apperr.OpDeleteUser, errNotANode("p"))
	}
	u := userFromProps(props)
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	sess := r.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.DB})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, `MATCH (u:User) RETURN u`, nil)
	var records []*neo4j.Record
	if err == nil {
		records, err = result.Collect(ctx)
	}
	if err != nil {
		return nil, apperr.Storage(apperr.OpListUsers, err)
	}

	users := make([]model.User, 0, len(records))
	for _, record := range records {
		u, err := userFromRecord(record, "u")
		if err != nil {
			return nil, apperr.Storage(apperr.OpListUsers, err)
		}
		users = append(users, *u)
	}
	return users, nil
}

// ----- record helpers -----

func userFromRecord(record *neo4j.Record, alias string) (*model.User, error) {
	v, ok := record.Get(alias)
	if !ok {
		return nil, errMissingAlias(alias)
	}
	node, ok := v.(neo4j.Node)
	if !ok {
		return nil, errNotANode(alias)
	}
	u := userFromProps(node.Props)
	return &u, nil
}

func userFromProps(props map[string]any) model.User {
	return model.User{
		ID:           strProp(props, "id"),
		Email:        strProp(props, "email"),
		Auth:         strProp(props, "auth"),
		FirstName:    strProp(props, "firstName"),
		SecondName:   strProp(props, "secondName"),
		LastName:     strProp(props, "lastName"),
		PasswordHash: strProp(props, "pwd"),
	}
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func errMissingAlias(alias string) error {
	return fmt.Errorf("record is missing alias %q", alias)
}

func errNotANode(alias string) error {
	return fmt.Errorf("record alias %q is not a node", alias)
}
