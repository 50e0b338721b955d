package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atfitk/websystem-api/internal/models"
)

const studentID = "3f1c7c44-1e0a-4a53-9a71-0d0f4f4a2b11"

var studentRowColumns = []string{
	"id", "full_name", "birth_date", "group_name", "iin", "previous_school", "specialty", "course", "address", "phone", "photo_path",
	"family", "internal_registry", "police_registry", "consultations",
	"psychologist_registry", "support_group", "psychiatrist_registry", "cpp_accompaniment", "suicide_registry",
	"created_at", "updated_at",
}

func addStudentRow(rows *sqlmock.Rows, id, name string, photo interface{}, now time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id, name, "2007-04-12", "ПО-21", "070412500123", "СОШ №12", "Программное обеспечение", "1", "г. Алматы", "+77010000000", photo,
		[]byte(`{"familyType":"Полная","childrenCount":2}`),
		[]byte(`{"status":"На учете","grounds":["Прогулы занятий"]}`),
		[]byte(`{"isRegistered":true,"district":"Медеуский"}`),
		[]byte(`[{"id":"c1","date":"2024-02-01"},{"id":"c2","date":"2024-01-10"}]`),
		[]byte(`{"isRegistered":false}`),
		[]byte(`{"isMember":false}`),
		[]byte(`{"isRegistered":false}`),
		[]byte(`{"isActive":false}`),
		[]byte(`{"hasFacts":false,"incidents":[]}`),
		now, now,
	)
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(studentRowColumns)
	addStudentRow(rows, studentID, "Алиев Арман", "1700000000000-123.jpg", now)
	addStudentRow(rows, "b6f0a4f2-3c65-4a61-9bd5-5f2cbe1a33c2", "Ким Анна", nil, now.Add(-time.Hour))
	mock.ExpectQuery("SELECT .* FROM students ORDER BY created_at DESC").WillReturnRows(rows)

	students, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 2)

	first := students[0]
	assert.Equal(t, "Алиев Арман", first.FullName)
	assert.Equal(t, "ПО-21", first.Group)
	assert.Equal(t, "1700000000000-123.jpg", first.PhotoFile())
	assert.Equal(t, models.FamilyComplete, first.Family.FamilyType)
	assert.Equal(t, 2, first.Family.ChildrenCount)
	assert.True(t, first.InternalRegistry.HasGround("Прогулы занятий"))
	assert.True(t, first.PoliceRegistry.IsRegistered)
	latest, ok := first.Consultations.Latest()
	require.True(t, ok)
	assert.Equal(t, "c2", latest.ID)
	assert.Empty(t, students[1].PhotoFile())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("FROM students ORDER BY").WillReturnRows(sqlmock.NewRows(studentRowColumns))

	students, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func TestStudentRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("FROM students WHERE id = \\$1").WithArgs(studentID).WillReturnRows(sqlmock.NewRows(studentRowColumns))

	_, err := repo.FindByID(context.Background(), studentID)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	args := make([]driver.Value, 0, 18)
	args = append(args, "Алиев Арман", "2007-04-12", "ПО-21")
	for i := 0; i < 15; i++ {
		args = append(args, sqlmock.AnyArg())
	}
	rows := addStudentRow(sqlmock.NewRows(studentRowColumns), studentID, "Алиев Арман", nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO students (")).WithArgs(args...).WillReturnRows(rows)

	profile := &models.StudentProfile{FullName: "Алиев Арман", BirthDate: "2007-04-12", Group: "ПО-21"}
	student, err := repo.Create(context.Background(), profile)
	require.NoError(t, err)
	assert.Equal(t, studentID, student.ID)
	assert.Equal(t, now, student.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE students SET")).WillReturnRows(sqlmock.NewRows(studentRowColumns))

	_, err := repo.Update(context.Background(), studentID, &models.StudentProfile{FullName: "X"})
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateWrapsDriverError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE students SET")).WillReturnError(errors.New("deadlock detected"))

	_, err := repo.Update(context.Background(), studentID, &models.StudentProfile{FullName: "X"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update student")
	assert.False(t, errors.Is(err, sql.ErrNoRows))
}

func TestStudentRepositoryDeleteReturnsPhoto(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM students WHERE id = $1 RETURNING photo_path")).
		WithArgs(studentID).
		WillReturnRows(sqlmock.NewRows([]string{"photo_path"}).AddRow("old.jpg"))
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM students WHERE id = $1 RETURNING photo_path")).
		WithArgs(studentID).
		WillReturnRows(sqlmock.NewRows([]string{"photo_path"}))

	photo, err := repo.Delete(context.Background(), studentID)
	require.NoError(t, err)
	assert.Equal(t, "old.jpg", photo)

	_, err = repo.Delete(context.Background(), studentID)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositorySwapPhoto(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("WITH prev AS .* FOR UPDATE").
		WithArgs(studentID, "new.png").
		WillReturnRows(sqlmock.NewRows([]string{"photo_path"}).AddRow("old.jpg"))

	prev, err := repo.SwapPhoto(context.Background(), studentID, "new.png")
	require.NoError(t, err)
	assert.Equal(t, "old.jpg", prev)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryClearPhoto(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("WITH prev AS").
		WithArgs(studentID, nil).
		WillReturnRows(sqlmock.NewRows([]string{"photo_path"}).AddRow(nil))

	prev, err := repo.SwapPhoto(context.Background(), studentID, "")
	require.NoError(t, err)
	assert.Empty(t, prev)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositorySwapPhotoMissingStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("WITH prev AS").WillReturnRows(sqlmock.NewRows([]string{"photo_path"}))

	_, err := repo.SwapPhoto(context.Background(), studentID, "new.png")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
