package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupress/school-portal-api/internal/models"
)

func newFormMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFormRepositoryListActiveTypes(t *testing.T) {
	db, mock, cleanup := newFormMock(t)
	defer cleanup()
	repo := NewFormRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name_english", "name_bangla", "description", "form_fields", "is_active", "created_at"}).
		AddRow("ft1", "Transfer Certificate", "ছাড়পত্র", "", []byte(`[]`), true, time.Now())
	mock.ExpectQuery("FROM form_types WHERE is_active = TRUE").WillReturnRows(rows)

	types, err := repo.ListActiveTypes(context.Background())
	require.NoError(t, err)
	assert.Len(t, types, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormRepositoryCreateSubmission(t *testing.T) {
	db, mock, cleanup := newFormMock(t)
	defer cleanup()
	repo := NewFormRepository(db)

	mock.ExpectExec("INSERT INTO form_submissions").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	submission := &models.FormSubmission{
		FormTypeID: "ft1",
		UserID:     "u1",
		FormData:   json.RawMessage(`{"reason":"relocation"}`),
		Status:     models.SubmissionPending,
	}
	err := repo.CreateSubmission(context.Background(), submission)
	require.NoError(t, err)
	assert.NotEmpty(t, submission.ID)
	assert.False(t, submission.SubmittedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormRepositoryUpdateSubmissionStatus(t *testing.T) {
	db, mock, cleanup := newFormMock(t)
	defer cleanup()
	repo := NewFormRepository(db)

	remarks := "verified"
	processedAt := time.Now()
	mock.ExpectExec("UPDATE form_submissions").
		WithArgs(models.SubmissionApproved, "admin-1", &remarks, processedAt, "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateSubmissionStatus(context.Background(), "s1", models.SubmissionApproved, "admin-1", &remarks, processedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newFormMock(t)
	defer cleanup()
	repo := NewFormRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM form_submissions WHERE status = $1")).
		WithArgs(models.SubmissionPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountSubmissionsByStatus(context.Background(), models.SubmissionPending)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
