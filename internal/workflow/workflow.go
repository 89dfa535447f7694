// Package workflow composes the repositories into the operations that span users and contacts.
// Each operation runs inside a single transaction, so a user is never visible without its contact.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/users-service/internal/logger"
	"gitlab.com/dirk.krummacker/users-service/internal/model"
	"gitlab.com/dirk.krummacker/users-service/internal/repository"
	"gitlab.com/dirk.krummacker/users-service/internal/store"
)

// Workflows bundles the transactional user and contact operations.
type Workflows struct {
	gateway  *store.Gateway
	users    *repository.UserRepo
	contacts *repository.ContactRepo
	log      *logger.Logger

	// newID generates the ids of new rows.
	newID func() uuid.UUID
}

// New builds the workflows on top of the gateway and both repositories.
func New(gateway *store.Gateway, users *repository.UserRepo, contacts *repository.ContactRepo, baseLog *logger.Logger) *Workflows {
	return &Workflows{
		gateway:  gateway,
		users:    users,
		contacts: contacts,
		log:      baseLog.With("component", "Workflows"),
		newID:    uuid.New,
	}
}

// CreateUserWithContact inserts a new user and its contact. Either both rows are committed or
// neither is. Only the user is returned.
func (w *Workflows) CreateUserWithContact(ctx context.Context, name string, genre model.Genre, email string) (*model.User, error) {
	var created *model.User
	err := w.gateway.InTx(ctx, func(tx *sqlx.Tx) error {
		user, err := w.users.Insert(ctx, tx, model.User{Id: w.newID(), Name: name, Genre: genre})
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		_, err = w.contacts.Insert(ctx, tx, model.Contact{Id: w.newID(), Email: email, UserId: user.Id})
		if err != nil {
			return fmt.Errorf("insert contact: %w", err)
		}
		created = user
		return nil
	})
	if err != nil {
		w.log.Warn("create user with contact failed", "error", err)
		return nil, err
	}
	w.log.Debug("user created", "user_id", created.Id)
	return created, nil
}

// UpdateUserAndContact applies the patch to a user and its contact in one transaction. It fails
// with store.ErrNotFound if the user does not exist and with store.ErrMissingContact if the user
// has no contact.
func (w *Workflows) UpdateUserAndContact(ctx context.Context, id uuid.UUID, patch model.UserPatch) (*model.User, *model.Contact, error) {
	var updatedUser *model.User
	var updatedContact *model.Contact
	err := w.gateway.InTx(ctx, func(tx *sqlx.Tx) error {
		_, contact, err := w.users.FindByIDWithContact(ctx, tx, id)
		if err != nil {
			return err
		}
		if contact == nil {
			w.log.Error("inconsistent data", "user_id", id, "error", store.ErrMissingContact)
			return store.ErrMissingContact
		}
		if updatedUser, err = w.users.Update(ctx, tx, id, patch); err != nil {
			return err
		}
		updatedContact, err = w.contacts.Update(ctx, tx, contact.Id, model.ContactPatch{Email: patch.Email})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return updatedUser, updatedContact, nil
}

// GetUserWithContact returns the composed user record. A user without contact is reported as
// store.ErrMissingContact.
func (w *Workflows) GetUserWithContact(ctx context.Context, id uuid.UUID) (*model.UserWithContact, error) {
	user, contact, err := w.users.FindByIDWithContact(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		w.log.Error("inconsistent data", "user_id", id, "error", store.ErrMissingContact)
		return nil, store.ErrMissingContact
	}
	joined := model.Join(*user, *contact)
	return &joined, nil
}

// DeleteUser removes a user together with its contact.
func (w *Workflows) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return w.gateway.InTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := w.contacts.DeleteByUserID(ctx, tx, id); err != nil {
			return fmt.Errorf("delete contact of user %s: %w", id, err)
		}
		n, err := w.users.Delete(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("delete user %s: %w", id, err)
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

// DeleteContact removes a contact unless its user still exists, which would leave the user
// without contact. Such contacts are only removed through DeleteUser.
func (w *Workflows) DeleteContact(ctx context.Context, id uuid.UUID) error {
	return w.gateway.InTx(ctx, func(tx *sqlx.Tx) error {
		contact, err := w.contacts.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = w.users.FindByID(ctx, tx, contact.UserId)
		switch {
		case err == nil:
			return store.ErrContactInUse
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		n, err := w.contacts.Delete(ctx, tx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}
