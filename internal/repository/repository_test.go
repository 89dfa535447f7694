package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/users-service/internal/logger"
	"gitlab.com/dirk.krummacker/users-service/internal/model"
	"gitlab.com/dirk.krummacker/users-service/internal/store"
)

var (
	userID    = uuid.MustParse("5f1c2a8e-3b6d-4c1e-9a7f-2d8e4b6c1a90")
	contactID = uuid.MustParse("a3b9e2d1-7c4f-4e8a-b1d6-9f2c3e5a7b80")
)

// createRepos builds both repositories on top of a mock database.
func createRepos(t *testing.T) (*UserRepo, *ContactRepo, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() {
		sqlDB.Close()
	})
	db := store.Wrap(sqlDB)
	return NewUserRepo(db, logger.Nop()), NewContactRepo(db, logger.Nop()), mock
}

func userRows(mock sqlmock.Sqlmock) *sqlmock.Rows {
	return mock.NewRows([]string{"id", "name", "genre"})
}

func contactRows(mock sqlmock.Sqlmock) *sqlmock.Rows {
	return mock.NewRows([]string{"id", "email", "user_id"})
}

func TestUserFindByID(t *testing.T) {
	users, _, mock := createRepos(t)
	mock.ExpectQuery("SELECT id, name, genre FROM users WHERE id").
		WithArgs(userID.String()).
		WillReturnRows(userRows(mock).AddRow(userID.String(), "Ana", []byte("F")))

	user, err := users.FindByID(context.Background(), nil, userID)
	require.NoError(t, err)
	assert.Equal(t, model.User{Id: userID, Name: "Ana", Genre: model.Female}, *user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindByIDNotFound(t *testing.T) {
	users, _, mock := createRepos(t)
	mock.ExpectQuery("SELECT id, name, genre FROM users WHERE id").
		WithArgs(userID.String()).
		WillReturnRows(userRows(mock))

	_, err := users.FindByID(context.Background(), nil, userID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUserFindByIDInvalidGenre expects a decode failure for an unknown genre code.
func TestUserFindByIDInvalidGenre(t *testing.T) {
	users, _, mock := createRepos(t)
	mock.ExpectQuery("SELECT id, name, genre FROM users WHERE id").
		WithArgs(userID.String()).
		WillReturnRows(userRows(mock).AddRow(userID.String(), "Ana", "X"))

	_, err := users.FindByID(context.Background(), nil, userID)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, store.ErrNotFound))
}

func TestUserFindAll(t *testing.T) {
	users, _, mock := createRepos(t)
	second := uuid.New()
	mock.ExpectQuery("SELECT id, name, genre FROM users ORDER BY id").
		WillReturnRows(userRows(mock).
			AddRow(userID.String(), "Ana", "F").
			AddRow(second.String(), "Bruno", "M"))

	all, err := users.FindAll(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ana", all[0].Name)
	assert.Equal(t, model.Male, all[1].Genre)
	assert.Equal(t, second, all[1].Id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUserFindAllEmpty expects an empty, non-nil slice so that the JSON is [] and not null.
func TestUserFindAllEmpty(t *testing.T) {
	users, _, mock := createRepos(t)
	mock.ExpectQuery("SELECT id, name, genre FROM users").WillReturnRows(userRows(mock))

	all, err := users.FindAll(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestUserFindByIDWithContact(t *testing.T) {
	users, _, mock := createRepos(t)
	rows := mock.NewRows([]string{"id", "name", "genre", "contact_id", "contact_email"}).
		AddRow(userID.String(), "Ana", "F", contactID.String(), "ana@x.com")
	mock.ExpectQuery("LEFT JOIN contacts").WithArgs(userID.String()).WillReturnRows(rows)

	user, contact, err := users.FindByIDWithContact(context.Background(), nil, userID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
	require.NotNil(t, contact)
	assert.Equal(t, model.Contact{Id: contactID, Email: "ana@x.com", UserId: userID}, *contact)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUserFindByIDWithContactMissing expects a user without contact if the join finds none.
func TestUserFindByIDWithContactMissing(t *testing.T) {
	users, _, mock := createRepos(t)
	rows := mock.NewRows([]string{"id", "name", "genre", "contact_id", "contact_email"}).
		AddRow(userID.String(), "Ana", "F", nil, nil)
	mock.ExpectQuery("LEFT JOIN contacts").WithArgs(userID.String()).WillReturnRows(rows)

	user, contact, err := users.FindByIDWithContact(context.Background(), nil, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, user.Id)
	assert.Nil(t, contact)
}

func TestUserFindByIDWithContactNotFound(t *testing.T) {
	users, _, mock := createRepos(t)
	mock.ExpectQuery("LEFT JOIN contacts").WithArgs(userID.String()).
		WillReturnRows(mock.NewRows([]string{"id", "name", "genre", "contact_id", "contact_email"}))

	_, _, err := users.FindByIDWithContact(context.Background(), nil, userID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserInsert(t *testing.T) {
	users, _, mock := createRepos(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs(userID.String(), "Ana", "F").
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := users.Insert(context.Background(), nil, model.User{Id: userID, Name: "Ana", Genre: model.Female})
	require.NoError(t, err)
	assert.Equal(t, userID, user.Id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUserInsertDuplicate expects the duplicate key error of MySQL to be reported as such.
func TestUserInsertDuplicate(t *testing.T) {
	users, _, mock := createRepos(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs(userID.String(), "Ana", "F").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'PRIMARY'"})

	_, err := users.Insert(context.Background(), nil, model.User{Id: userID, Name: "Ana", Genre: model.Female})
	assert.ErrorIs(t, err, store.ErrDuplicateID)
}

// TestUserUpdatePartial expects that only the present fields are written.
func TestUserUpdatePartial(t *testing.T) {
	users, _, mock := createRepos(t)
	mock.ExpectExec("UPDATE users SET name = \\? WHERE id = \\?").
		WithArgs("Bea", userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, name, genre FROM users WHERE id").
		WithArgs(userID.String()).
		WillReturnRows(userRows(mock).AddRow(userID.String(), "Bea", "F"))

	name := "Bea"
	user, err := users.Update(context.Background(), nil, userID, model.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Bea", user.Name)
	assert.Equal(t, model.Female, user.Genre)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateAllFields(t *testing.T) {
	users, _, mock := createRepos(t)
	mock.ExpectExec("UPDATE users SET name = \\?, genre = \\? WHERE id = \\?").
		WithArgs("Bruno", "M", userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, name, genre FROM users WHERE id").
		WithArgs(userID.String()).
		WillReturnRows(userRows(mock).AddRow(userID.String(), "Bruno", "M"))

	name, genre := "Bruno", model.Male
	user, err := users.Update(context.Background(), nil, userID, model.UserPatch{Name: &name, Genre: &genre})
	require.NoError(t, err)
	assert.Equal(t, model.Male, user.Genre)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUserUpdateEmptyPatch expects no UPDATE statement and the unchanged user.
func TestUserUpdateEmptyPatch(t *testing.T) {
	users, _, mock := createRepos(t)
	mock.ExpectQuery("SELECT id, name, genre FROM users WHERE id").
		WithArgs(userID.String()).
		WillReturnRows(userRows(mock).AddRow(userID.String(), "Ana", "F"))

	user, err := users.Update(context.Background(), nil, userID, model.UserPatch{})
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateNotFound(t *testing.T) {
	users, _, mock := createRepos(t)
	mock.ExpectExec("UPDATE users").
		WithArgs("Bea", userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, name, genre FROM users WHERE id").
		WithArgs(userID.String()).
		WillReturnRows(userRows(mock))

	name := "Bea"
	_, err := users.Update(context.Background(), nil, userID, model.UserPatch{Name: &name})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserDelete(t *testing.T) {
	users, _, mock := createRepos(t)
	mock.ExpectExec("DELETE FROM users WHERE id").
		WithArgs(userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := users.Delete(context.Background(), nil, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUserDeleteFailure(t *testing.T) {
	users, _, mock := createRepos(t)
	mock.ExpectExec("DELETE FROM users WHERE id").
		WithArgs(userID.String()).
		WillReturnError(sql.ErrConnDone)

	_, err := users.Delete(context.Background(), nil, userID)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestContactFindByID(t *testing.T) {
	_, contacts, mock := createRepos(t)
	mock.ExpectQuery("SELECT id, email, user_id FROM contacts WHERE id").
		WithArgs(contactID.String()).
		WillReturnRows(contactRows(mock).AddRow(contactID.String(), "ana@x.com", userID.String()))

	contact, err := contacts.FindByID(context.Background(), nil, contactID)
	require.NoError(t, err)
	assert.Equal(t, model.Contact{Id: contactID, Email: "ana@x.com", UserId: userID}, *contact)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactFindAll(t *testing.T) {
	_, contacts, mock := createRepos(t)
	mock.ExpectQuery("SELECT id, email, user_id FROM contacts ORDER BY id").
		WillReturnRows(contactRows(mock).AddRow(contactID.String(), "ana@x.com", userID.String()))

	all, err := contacts.FindAll(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "ana@x.com", all[0].Email)
}

func TestContactInsert(t *testing.T) {
	_, contacts, mock := createRepos(t)
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs(contactID.String(), "ana@x.com", userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := contacts.Insert(context.Background(), nil, model.Contact{Id: contactID, Email: "ana@x.com", UserId: userID})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactUpdate(t *testing.T) {
	_, contacts, mock := createRepos(t)
	mock.ExpectExec("UPDATE contacts SET email").
		WithArgs("ana2@x.com", contactID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, email, user_id FROM contacts WHERE id").
		WithArgs(contactID.String()).
		WillReturnRows(contactRows(mock).AddRow(contactID.String(), "ana2@x.com", userID.String()))

	email := "ana2@x.com"
	contact, err := contacts.Update(context.Background(), nil, contactID, model.ContactPatch{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "ana2@x.com", contact.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactUpdateEmptyPatch(t *testing.T) {
	_, contacts, mock := createRepos(t)
	mock.ExpectQuery("SELECT id, email, user_id FROM contacts WHERE id").
		WithArgs(contactID.String()).
		WillReturnRows(contactRows(mock).AddRow(contactID.String(), "ana@x.com", userID.String()))

	contact, err := contacts.Update(context.Background(), nil, contactID, model.ContactPatch{})
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", contact.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestContactUpdateNotFound expects store.ErrNotFound if the contact does not exist.
func TestContactUpdateNotFound(t *testing.T) {
	_, contacts, mock := createRepos(t)
	mock.ExpectExec("UPDATE contacts SET email").
		WithArgs("x@y", contactID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, email, user_id FROM contacts WHERE id").
		WithArgs(contactID.String()).
		WillReturnRows(contactRows(mock))

	email := "x@y"
	_, err := contacts.Update(context.Background(), nil, contactID, model.ContactPatch{Email: &email})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactDeleteByUserID(t *testing.T) {
	_, contacts, mock := createRepos(t)
	mock.ExpectExec("DELETE FROM contacts WHERE user_id").
		WithArgs(userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := contacts.DeleteByUserID(context.Background(), nil, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestContactDelete(t *testing.T) {
	_, contacts, mock := createRepos(t)
	mock.ExpectExec("DELETE FROM contacts WHERE id").
		WithArgs(contactID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := contacts.Delete(context.Background(), nil, contactID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
