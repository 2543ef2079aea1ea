package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database"
)

type userRepository struct {
	db *database.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *database.DB) user.Repository {
	return &userRepository{db: db}
}

type userRow struct {
	ID           string         `db:"id"`
	Name         null.String    `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash null.Bytes     `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name.String,
		Username:     r.Username.String,
		Email:        r.Email.String,
		IsActive:     r.IsActive,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func toUsers(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users
}

const userColumns = `id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login`

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	ex := getExec(repo.db, exec)

	query := `SELECT EXISTS (SELECT 1 FROM "user" WHERE (username = ? OR email = ?)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query += ` AND id NOT IN (?)`
		var err error
		if query, args, err = sqlx.In(query+`)`, username, email, ids); err != nil {
			return errors.Wrap(err, "binding uniqueness query")
		}
	} else {
		query += `)`
	}

	var exists bool
	if err := ex.GetContext(ctx, &exists, ex.Rebind(query), args...); err != nil {
		return trapErr(err, user.ErrNotFound, "checking username uniqueness")
	}
	if exists {
		return user.ErrUserExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	ex := getExec(repo.db, exec)

	const query = `
		INSERT INTO "user" (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := ex.ExecContext(ctx, query,
		usr.ID,
		null.NewString(usr.Name, usr.Name != ""),
		null.NewString(usr.Username, usr.Username != ""),
		null.NewString(usr.Email, usr.Email != ""),
		usr.IsActive,
		pq.StringArray(usr.Roles),
		null.BytesFrom(usr.PasswordHash),
		usr.CreatedAt.UTC(),
		usr.UpdatedAt.UTC(),
		null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, trapErr(err, user.ErrNotFound, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	ex := getExec(repo.db, exec)

	var (
		where string
		args  []interface{}
	)
	switch {
	case filter.ID != "":
		where, args = `id = $1`, []interface{}{filter.ID}
	case filter.Username != "":
		where, args = `username = $1`, []interface{}{filter.Username}
	case filter.Email != "":
		where, args = `email = $1`, []interface{}{filter.Email}
	case len(filter.UsernameOrEmail) == 2:
		where, args = `(username = $1 OR email = $2)`, []interface{}{filter.UsernameOrEmail[0], filter.UsernameOrEmail[1]}
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	query := `SELECT ` + userColumns + ` FROM "user" WHERE ` + where
	if err := ex.GetContext(ctx, &row, query, args...); err != nil {
		return user.User{}, trapErr(err, user.ErrNotFound, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ex := getExec(repo.db, exec)

	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "binding users query")
	}

	var rows []userRow
	if err = ex.SelectContext(ctx, &rows, ex.Rebind(query), args...); err != nil {
		return nil, trapErr(err, user.ErrNotFound, "getting users")
	}
	return toUsers(rows), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	ex := getExec(repo.db, exec)

	query := `SELECT ` + userColumns + ` FROM "user"`
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf("(name ILIKE %[1]s OR username ILIKE %[1]s OR email ILIKE %[1]s)", p))
		}
		if len(filter.Roles) > 0 {
			ors := make([]string, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				p := arg(role + "%")
				ors = append(ors, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(roles) r WHERE r LIKE %s)", p))
			}
			conds = append(conds, "("+strings.Join(ors, " OR ")+")")
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = "+arg(*filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, "created_at >= "+arg(filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, "created_at <= "+arg(filter.CreatedTo.UTC()))
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderBy(ordering, "created_at DESC")

	var rows []userRow
	if err := ex.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, trapErr(err, user.ErrNotFound, "querying users")
	}
	return toUsers(rows), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	ex := getExec(repo.db, exec)

	// only save set fields
	var (
		sets []string
		args []interface{}
	)
	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if usr.Name != "" {
		set("name", usr.Name)
	}
	if usr.Username != "" {
		set("username", usr.Username)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if usr.Roles != nil {
		set("roles", pq.StringArray(usr.Roles))
	}
	if usr.PasswordHash != nil {
		set("password_hash", usr.PasswordHash)
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	if !usr.LastLogin.IsZero() {
		set("last_login", usr.LastLogin.UTC())
	}
	if !usr.UpdatedAt.IsZero() {
		set("updated_at", usr.UpdatedAt.UTC())
	}
	if len(sets) == 0 {
		return repo.GetUser(ctx, user.GetFilter{ID: usr.ID}, exec...)
	}

	args = append(args, usr.ID)
	query := fmt.Sprintf(
		`UPDATE "user" SET %s WHERE id = $%d RETURNING `+userColumns,
		strings.Join(sets, ", "), len(args),
	)

	var row userRow
	if err := ex.GetContext(ctx, &row, query, args...); err != nil {
		if isUniqueViolation(err, "") {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, trapErr(err, user.ErrNotFound, "updating user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	ex := getExec(repo.db, exec)

	const query = `
		INSERT INTO "user" (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			is_active = EXCLUDED.is_active,
			roles = EXCLUDED.roles,
			password_hash = EXCLUDED.password_hash,
			updated_at = EXCLUDED.updated_at,
			last_login = EXCLUDED.last_login`
	_, err := ex.ExecContext(ctx, query,
		usr.ID,
		null.NewString(usr.Name, usr.Name != ""),
		null.NewString(usr.Username, usr.Username != ""),
		null.NewString(usr.Email, usr.Email != ""),
		usr.IsActive,
		pq.StringArray(usr.Roles),
		null.BytesFrom(usr.PasswordHash),
		usr.CreatedAt.UTC(),
		usr.UpdatedAt.UTC(),
		null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	)
	if err != nil {
		return user.User{}, trapErr(err, user.ErrNotFound, "upserting user")
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	ex := getExec(repo.db, exec)

	query, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "binding delete query")
	}
	if _, err = ex.ExecContext(ctx, ex.Rebind(query), args...); err != nil {
		return trapErr(err, user.ErrNotFound, "deleting users")
	}
	return nil
}
