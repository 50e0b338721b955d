package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atfitk/websystem-api/internal/models"
	appErrors "github.com/atfitk/websystem-api/pkg/errors"
)

type mockStudentRepo struct {
	students  map[string]models.Student
	order     []string
	listCalls int
	err       error
	deleted   []string
	afterList func()
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: map[string]models.Student{}}
}

func (m *mockStudentRepo) List(ctx context.Context) ([]models.Student, error) {
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Student, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, m.students[m.order[i]])
	}
	if hook := m.afterList; hook != nil {
		m.afterList = nil
		hook()
	}
	return out, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, profile *models.StudentProfile) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	now := time.Now()
	s := models.Student{ID: uuid.NewString(), StudentProfile: *profile, CreatedAt: now, UpdatedAt: now}
	m.students[s.ID] = s
	m.order = append(m.order, s.ID)
	return &s, nil
}

func (m *mockStudentRepo) Update(ctx context.Context, id string, profile *models.StudentProfile) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	s.StudentProfile = *profile
	s.UpdatedAt = time.Now()
	m.students[id] = s
	return &s, nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	s, ok := m.students[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	delete(m.students, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.deleted = append(m.deleted, id)
	return s.PhotoFile(), nil
}

type mockPhotoFiles struct {
	removed []string
	err     error
}

func (m *mockPhotoFiles) Delete(filename string) error {
	m.removed = append(m.removed, filename)
	return m.err
}

func newStudentFixture(cacheEnabled bool) (*StudentService, *mockStudentRepo, *mockPhotoFiles, *memoryCache) {
	repo := newMockStudentRepo()
	files := &mockPhotoFiles{}
	mem := newMemoryCache()
	cache := NewCacheService(mem, nil, time.Minute, nil, cacheEnabled)
	svc := NewStudentService(repo, files, cache, validator.New(), zap.NewNop(), StudentServiceConfig{BaseURL: "http://localhost:3001"})
	return svc, repo, files, mem
}

func requireStatus(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, status, appErr.Status)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

func TestStudentServiceCreateNormalizes(t *testing.T) {
	svc, _, _, _ := newStudentFixture(false)

	student, err := svc.Create(context.Background(), models.StudentProfile{
		FullName:         "  Иванов Иван  ",
		InternalRegistry: models.InternalRegistry{Status: models.StatusRegistered, RemovalDate: "2024-01-01"},
		PoliceRegistry:   models.PoliceRegistry{IsRegistered: false, District: "Ауэзовский"},
		Consultations:    models.Consultations{{Date: "2024-02-01", WorkType: "Беседа"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Иванов Иван", student.FullName)
	assert.Empty(t, student.InternalRegistry.RemovalDate)
	assert.Equal(t, models.PoliceRegistry{}, student.PoliceRegistry)
	require.Len(t, student.Consultations, 1)
	assert.NotEmpty(t, student.Consultations[0].ID)
	assert.NotNil(t, student.SuicideRegistry.Incidents)
	assert.Empty(t, student.Photo)
}

func TestStudentServiceCreateRequiresName(t *testing.T) {
	svc, repo, _, _ := newStudentFixture(false)

	_, err := svc.Create(context.Background(), models.StudentProfile{FullName: "   "})
	requireStatus(t, err, http.StatusBadRequest, "fullName is required")
	assert.Empty(t, repo.students)
}

func TestStudentServiceRejectsUnknownRegistryValues(t *testing.T) {
	svc, _, _, _ := newStudentFixture(false)

	_, err := svc.Create(context.Background(), models.StudentProfile{
		FullName:         "Петров Пётр",
		InternalRegistry: models.InternalRegistry{Grounds: []string{"Неизвестно"}},
	})
	requireStatus(t, err, http.StatusBadRequest, "invalid value for internalRegistry.grounds[0]")

	_, err = svc.Create(context.Background(), models.StudentProfile{
		FullName: "Петров Пётр",
		Family:   models.FamilyData{FamilyType: "Большая"},
	})
	requireStatus(t, err, http.StatusBadRequest, "invalid value for family.familyType")

	_, err = svc.Create(context.Background(), models.StudentProfile{
		FullName:        "Петров Пётр",
		SuicideRegistry: models.SuicideRegistry{HasFacts: true, Incidents: []models.SuicideIncident{{Type: "Другое"}}},
	})
	requireStatus(t, err, http.StatusBadRequest, "")
}

func TestStudentServiceGetDecoratesPhoto(t *testing.T) {
	svc, repo, _, _ := newStudentFixture(false)
	photo := "1700000000000-123456789.jpg"
	id := uuid.NewString()
	repo.students[id] = models.Student{ID: id, StudentProfile: models.StudentProfile{FullName: "A"}, PhotoPath: &photo}

	student, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3001/uploads/"+photo, student.Photo)
}

func TestStudentServiceGetNotFound(t *testing.T) {
	svc, _, _, _ := newStudentFixture(false)

	_, err := svc.Get(context.Background(), uuid.NewString())
	requireStatus(t, err, http.StatusNotFound, "Student not found")

	_, err = svc.Get(context.Background(), "not-a-uuid")
	requireStatus(t, err, http.StatusNotFound, "Student not found")
}

func TestStudentServiceUpdateReplacesProfile(t *testing.T) {
	svc, _, _, _ := newStudentFixture(false)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.StudentProfile{FullName: "Old", Group: "ИС-21", Phone: "+7 700"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, models.StudentProfile{FullName: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.FullName)
	assert.Empty(t, updated.Group)
	assert.Empty(t, updated.Phone)

	_, err = svc.Update(ctx, uuid.NewString(), models.StudentProfile{FullName: "X"})
	requireStatus(t, err, http.StatusNotFound, "Student not found")
}

func TestStudentServiceDeleteRemovesPhoto(t *testing.T) {
	svc, repo, files, _ := newStudentFixture(false)
	photo := "p.png"
	id := uuid.NewString()
	repo.students[id] = models.Student{ID: id, PhotoPath: &photo}
	repo.order = append(repo.order, id)

	require.NoError(t, svc.Delete(context.Background(), id))
	assert.Equal(t, []string{"p.png"}, files.removed)

	err := svc.Delete(context.Background(), id)
	requireStatus(t, err, http.StatusNotFound, "Student not found")
}

func TestStudentServiceDeleteIgnoresFileErrors(t *testing.T) {
	svc, repo, files, _ := newStudentFixture(false)
	files.err = errors.New("permission denied")
	photo := "p.png"
	id := uuid.NewString()
	repo.students[id] = models.Student{ID: id, PhotoPath: &photo}

	assert.NoError(t, svc.Delete(context.Background(), id))
}

func TestStudentServiceListUsesCache(t *testing.T) {
	svc, repo, _, mem := newStudentFixture(true)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.StudentProfile{FullName: "First"})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, repo.listCalls)

	_, err = svc.Create(ctx, models.StudentProfile{FullName: "Second"})
	require.NoError(t, err)
	assert.Contains(t, mem.invalidated, studentListPattern)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[0].FullName)
	assert.Equal(t, 2, repo.listCalls)
}

func TestStudentServiceListIgnoresRefillFromOlderGeneration(t *testing.T) {
	svc, repo, _, _ := newStudentFixture(true)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.StudentProfile{FullName: "First"})
	require.NoError(t, err)

	repo.afterList = func() {
		_, err := svc.Create(ctx, models.StudentProfile{FullName: "Second"})
		require.NoError(t, err)
	}
	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[0].FullName)
}

func TestStudentServiceInvalidatesWhenVersionBumpFails(t *testing.T) {
	svc, _, _, mem := newStudentFixture(true)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.StudentProfile{FullName: "First"})
	require.NoError(t, err)
	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	mem.incrErr = errors.New("redis down")
	_, err = svc.Create(ctx, models.StudentProfile{FullName: "Second"})
	require.NoError(t, err)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestStudentServiceListSkipsCacheWhenVersionUnreadable(t *testing.T) {
	svc, repo, _, mem := newStudentFixture(true)
	ctx := context.Background()
	mem.getErr = errors.New("redis down")

	_, err := svc.List(ctx)
	require.NoError(t, err)
	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
	assert.Empty(t, mem.data)
}

func TestStudentServiceListFailure(t *testing.T) {
	svc, repo, _, _ := newStudentFixture(false)
	repo.err = errors.New("db down")

	_, err := svc.List(context.Background())
	requireStatus(t, err, http.StatusInternalServerError, "Failed to fetch students")
}
