package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/users-service/internal/logger"
	"gitlab.com/dirk.krummacker/users-service/internal/model"
	"gitlab.com/dirk.krummacker/users-service/internal/store"
)

const (
	selectContactWhereId     = `SELECT id, email, user_id FROM contacts WHERE id = ?`
	selectAllContacts        = `SELECT id, email, user_id FROM contacts ORDER BY id`
	insertContact            = `INSERT INTO contacts (id, email, user_id) VALUES (:id, :email, :user_id)`
	updateContactEmail       = `UPDATE contacts SET email = ? WHERE id = ?`
	deleteContactWhereId     = `DELETE FROM contacts WHERE id = ?`
	deleteContactWhereUserId = `DELETE FROM contacts WHERE user_id = ?`
)

// ContactRepo is the data access for contacts. Every method runs on the given executor, or on
// the connection pool if the executor is nil.
type ContactRepo struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewContactRepo returns a contact repository on the given connection pool.
func NewContactRepo(db *sqlx.DB, baseLog *logger.Logger) *ContactRepo {
	return &ContactRepo{db: db, log: baseLog.With("repo", "ContactRepo")}
}

func (r *ContactRepo) executor(ex store.Executor) store.Executor {
	if ex == nil {
		return r.db
	}
	return ex
}

// FindByID returns the contact with the given id or store.ErrNotFound.
func (r *ContactRepo) FindByID(ctx context.Context, ex store.Executor, id uuid.UUID) (*model.Contact, error) {
	var contact model.Contact
	if err := r.executor(ex).GetContext(ctx, &contact, selectContactWhereId, id); err != nil {
		return nil, store.Translate(err)
	}
	return &contact, nil
}

// FindAll returns all contacts ordered by id.
func (r *ContactRepo) FindAll(ctx context.Context, ex store.Executor) ([]model.Contact, error) {
	contacts := []model.Contact{}
	if err := r.executor(ex).SelectContext(ctx, &contacts, selectAllContacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// Insert stores a new contact. Id and user id must already be set.
func (r *ContactRepo) Insert(ctx context.Context, ex store.Executor, contact model.Contact) (*model.Contact, error) {
	if _, err := r.executor(ex).NamedExecContext(ctx, insertContact, contact); err != nil {
		r.log.Debug("insert failed", "contact_id", contact.Id, "user_id", contact.UserId, "error", err)
		return nil, store.Translate(err)
	}
	return &contact, nil
}

// Update writes the email of the patch, if present, and returns the contact as stored
// afterwards.
func (r *ContactRepo) Update(ctx context.Context, ex store.Executor, id uuid.UUID, patch model.ContactPatch) (*model.Contact, error) {
	ex = r.executor(ex)
	if patch.Email != nil {
		if _, err := ex.ExecContext(ctx, updateContactEmail, *patch.Email, id); err != nil {
			return nil, fmt.Errorf("update contact %s: %w", id, err)
		}
	}
	return r.FindByID(ctx, ex, id)
}

// Delete removes the contact with the given id and returns the number of deleted rows.
func (r *ContactRepo) Delete(ctx context.Context, ex store.Executor, id uuid.UUID) (int64, error) {
	result, err := r.executor(ex).ExecContext(ctx, deleteContactWhereId, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteByUserID removes the contacts of the given user and returns the number of deleted rows.
func (r *ContactRepo) DeleteByUserID(ctx context.Context, ex store.Executor, userID uuid.UUID) (int64, error) {
	result, err := r.executor(ex).ExecContext(ctx, deleteContactWhereUserId, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
