package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/users-service/internal/logger"
	"gitlab.com/dirk.krummacker/users-service/internal/model"
	"gitlab.com/dirk.krummacker/users-service/internal/store"
)

const (
	selectUserWhereId = `SELECT id, name, genre FROM users WHERE id = ?`
	selectAllUsers    = `SELECT id, name, genre FROM users ORDER BY id`
	insertUser        = `INSERT INTO users (id, name, genre) VALUES (:id, :name, :genre)`
	deleteUserWhereId = `DELETE FROM users WHERE id = ?`

	// selectUserWithContact is an outer join: the contact columns are NULL if the user has no
	// contact row.
	selectUserWithContact = `
		SELECT u.id, u.name, u.genre, c.id AS contact_id, c.email AS contact_email
		FROM users u
		LEFT JOIN contacts c ON c.user_id = u.id
		WHERE u.id = ?`
)

// userContactRow is the result row of the outer join.
type userContactRow struct {
	model.User
	ContactId    *uuid.UUID `db:"contact_id"`
	ContactEmail *string    `db:"contact_email"`
}

// UserRepo is the data access for users. Every method runs on the given executor, or on the
// connection pool if the executor is nil.
type UserRepo struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewUserRepo returns a user repository on the given connection pool.
func NewUserRepo(db *sqlx.DB, baseLog *logger.Logger) *UserRepo {
	return &UserRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *UserRepo) executor(ex store.Executor) store.Executor {
	if ex == nil {
		return r.db
	}
	return ex
}

// FindByID returns the user with the given id or store.ErrNotFound.
func (r *UserRepo) FindByID(ctx context.Context, ex store.Executor, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.executor(ex).GetContext(ctx, &user, selectUserWhereId, id); err != nil {
		return nil, store.Translate(err)
	}
	return &user, nil
}

// FindAll returns all users ordered by id.
func (r *UserRepo) FindAll(ctx context.Context, ex store.Executor) ([]model.User, error) {
	users := []model.User{}
	if err := r.executor(ex).SelectContext(ctx, &users, selectAllUsers); err != nil {
		return nil, err
	}
	return users, nil
}

// FindByIDWithContact returns the user with the given id together with its contact. The contact
// is nil if the user has none; callers decide how to treat that.
func (r *UserRepo) FindByIDWithContact(ctx context.Context, ex store.Executor, id uuid.UUID) (*model.User, *model.Contact, error) {
	var row userContactRow
	if err := r.executor(ex).GetContext(ctx, &row, selectUserWithContact, id); err != nil {
		return nil, nil, store.Translate(err)
	}
	user := row.User
	if row.ContactId == nil {
		return &user, nil, nil
	}
	contact := &model.Contact{Id: *row.ContactId, UserId: user.Id}
	if row.ContactEmail != nil {
		contact.Email = *row.ContactEmail
	}
	return &user, contact, nil
}

// Insert stores a new user. The id must already be set.
func (r *UserRepo) Insert(ctx context.Context, ex store.Executor, user model.User) (*model.User, error) {
	if _, err := r.executor(ex).NamedExecContext(ctx, insertUser, user); err != nil {
		r.log.Debug("insert failed", "user_id", user.Id, "error", err)
		return nil, store.Translate(err)
	}
	return &user, nil
}

// Update writes the name and genre of the patch, if present, and returns the user as stored
// afterwards. The email of the patch is ignored here. An empty patch only reads the user.
func (r *UserRepo) Update(ctx context.Context, ex store.Executor, id uuid.UUID, patch model.UserPatch) (*model.User, error) {
	ex = r.executor(ex)
	var sets []string
	var args []interface{}
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Genre != nil {
		sets = append(sets, "genre = ?")
		args = append(args, *patch.Genre)
	}
	if len(sets) > 0 {
		query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		args = append(args, id)
		if _, err := ex.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("update user %s: %w", id, err)
		}
	}
	// MySQL reports zero affected rows if nothing changed, so existence is checked by reading.
	return r.FindByID(ctx, ex, id)
}

// Delete removes the user with the given id and returns the number of deleted rows.
func (r *UserRepo) Delete(ctx context.Context, ex store.Executor, id uuid.UUID) (int64, error) {
	result, err := r.executor(ex).ExecContext(ctx, deleteUserWhereId, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
