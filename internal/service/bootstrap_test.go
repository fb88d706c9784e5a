package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bloodbank/internal/logging"
	"github.com/iliyamo/bloodbank/internal/repository"
)

var bootstrapUserCols = []string{"id", "name", "email", "password_hash", "role", "gender", "phone", "address", "group", "created_at", "updated_at"}

func newUserMock(t *testing.T) (*repository.UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewUserRepo(db), mock
}

func TestEnsureAdmin_CreatesMissingAccount(t *testing.T) {
	users, mock := newUserMock(t)
	mock.ExpectQuery(`WHERE u.email = \?`).WithArgs("root@example.com").WillReturnRows(sqlmock.NewRows(bootstrapUserCols))
	mock.ExpectExec("INSERT INTO `user`").
		WithArgs("Administrator", "root@example.com", sqlmock.AnyArg(), "Admin", "", "", "", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, EnsureAdmin(context.Background(), users, "root@example.com", "changeme", 4, logging.Discard()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureAdmin_PromotesExistingAccount(t *testing.T) {
	users, mock := newUserMock(t)
	now := time.Now()
	mock.ExpectQuery(`WHERE u.email = \?`).WithArgs("root@example.com").
		WillReturnRows(sqlmock.NewRows(bootstrapUserCols).AddRow(9, "Root", "root@example.com", "h", "Staff", "", "", "", "", now, now))
	mock.ExpectExec("UPDATE `user` SET role = \\?").WithArgs("Admin", uint64(9)).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, EnsureAdmin(context.Background(), users, "root@example.com", "changeme", 4, logging.Discard()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureAdmin_NoopWhenAlreadyAdmin(t *testing.T) {
	users, mock := newUserMock(t)
	now := time.Now()
	mock.ExpectQuery(`WHERE u.email = \?`).
		WillReturnRows(sqlmock.NewRows(bootstrapUserCols).AddRow(9, "Root", "root@example.com", "h", "Admin", "", "", "", "", now, now))

	require.NoError(t, EnsureAdmin(context.Background(), users, "root@example.com", "changeme", 4, logging.Discard()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureAdmin_SkippedWithoutEmail(t *testing.T) {
	users, mock := newUserMock(t)
	require.NoError(t, EnsureAdmin(context.Background(), users, "", "", 4, logging.Discard()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureAdmin_LookupFailure(t *testing.T) {
	users, mock := newUserMock(t)
	mock.ExpectQuery(`WHERE u.email = \?`).WillReturnError(errors.New("connection refused"))

	err := EnsureAdmin(context.Background(), users, "root@example.com", "changeme", 4, logging.Discard())
	require.ErrorContains(t, err, "lookup bootstrap admin")
}
