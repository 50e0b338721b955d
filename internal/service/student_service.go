package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atfitk/websystem-api/internal/models"
	appErrors "github.com/atfitk/websystem-api/pkg/errors"
)

// List entries are keyed by a generation counter that every mutation
// advances, so a slow reader can only refill a generation nobody reads.
const (
	studentVersionKey  = "students:version"
	studentListPrefix  = "students:list:"
	studentListPattern = studentListPrefix + "*"
)

type studentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, profile *models.StudentProfile) (*models.Student, error)
	Update(ctx context.Context, id string, profile *models.StudentProfile) (*models.Student, error)
	Delete(ctx context.Context, id string) (string, error)
}

type photoRemover interface {
	Delete(filename string) error
}

// StudentServiceConfig carries values needed to shape responses.
type StudentServiceConfig struct {
	BaseURL  string
	CacheTTL time.Duration
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	files     photoRemover
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       StudentServiceConfig
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, files photoRemover, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg StudentServiceConfig) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := RegisterStudentValidations(validate); err != nil {
		logger.Error("register student validations", zap.Error(err))
	}
	return &StudentService{repo: repo, files: files, cache: cache, validator: validate, logger: logger, cfg: cfg}
}

// List returns all students, newest first.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	version, verr := s.cache.Version(ctx, studentVersionKey)
	key := studentListKey(version)
	if verr == nil {
		var cached []models.Student
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return cached, nil
		}
	}

	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to fetch students")
	}
	for i := range students {
		s.decorate(&students[i])
	}

	if verr == nil {
		_ = s.cache.Set(ctx, key, students, s.cfg.CacheTTL)
	}
	return students, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	if !validStudentID(id) {
		return nil, studentNotFound()
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, studentNotFound()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to fetch student")
	}
	s.decorate(student)
	return student, nil
}

// Create validates and stores a new student.
func (s *StudentService) Create(ctx context.Context, profile models.StudentProfile) (*models.Student, error) {
	if err := s.prepare(&profile); err != nil {
		return nil, err
	}
	student, err := s.repo.Create(ctx, &profile)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to create student")
	}
	s.decorate(student)
	s.invalidate(ctx)
	s.logger.Info("student created", zap.String("student_id", student.ID))
	return student, nil
}

// Update replaces every editable field of the student.
func (s *StudentService) Update(ctx context.Context, id string, profile models.StudentProfile) (*models.Student, error) {
	if !validStudentID(id) {
		return nil, studentNotFound()
	}
	if err := s.prepare(&profile); err != nil {
		return nil, err
	}
	student, err := s.repo.Update(ctx, id, &profile)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, studentNotFound()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to update student")
	}
	s.decorate(student)
	s.invalidate(ctx)
	return student, nil
}

// Delete removes the student and, best-effort, its photo file.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if !validStudentID(id) {
		return studentNotFound()
	}
	photo, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return studentNotFound()
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to delete student")
	}
	if photo != "" && s.files != nil {
		if err := s.files.Delete(photo); err != nil {
			s.logger.Warn("failed to remove student photo", zap.String("student_id", id), zap.String("photo", photo), zap.Error(err))
		}
	}
	s.invalidate(ctx)
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

func (s *StudentService) prepare(profile *models.StudentProfile) error {
	profile.Normalize()
	if err := s.validator.Struct(profile); err != nil {
		return validationError(err)
	}
	for i := range profile.Consultations {
		if profile.Consultations[i].ID == "" {
			profile.Consultations[i].ID = uuid.NewString()
		}
	}
	for i := range profile.SuicideRegistry.Incidents {
		if profile.SuicideRegistry.Incidents[i].ID == "" {
			profile.SuicideRegistry.Incidents[i].ID = uuid.NewString()
		}
	}
	return nil
}

func (s *StudentService) decorate(student *models.Student) {
	student.Photo = models.PhotoURL(s.cfg.BaseURL, student.PhotoFile())
	if student.Consultations == nil {
		student.Consultations = models.Consultations{}
	}
}

func (s *StudentService) invalidate(ctx context.Context) {
	invalidateStudentList(ctx, s.cache, s.logger)
}

func studentListKey(version int64) string {
	return studentListPrefix + strconv.FormatInt(version, 10)
}

func invalidateStudentList(ctx context.Context, cache *CacheService, logger *zap.Logger) {
	if err := cache.Bump(ctx, studentVersionKey); err != nil {
		logger.Error("failed to advance student list generation", zap.Error(err))
	}
	if err := cache.Invalidate(ctx, studentListPattern); err != nil {
		logger.Error("failed to drop cached student lists", zap.Error(err))
	}
}

func validStudentID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func studentNotFound() error {
	return appErrors.Clone(appErrors.ErrNotFound, "Student not found")
}
