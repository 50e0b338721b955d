package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/atfitk/websystem-api/internal/models"
	appErrors "github.com/atfitk/websystem-api/pkg/errors"
)

const sniffLen = 3072

var defaultPhotoMIMEs = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

type photoRepository interface {
	SwapPhoto(ctx context.Context, id, filename string) (string, error)
}

type photoStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

// PhotoUpload is an incoming photo as read from the multipart form.
type PhotoUpload struct {
	OriginalName string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// PhotoResult is returned after a successful upload.
type PhotoResult struct {
	Photo    string `json:"photo"`
	Filename string `json:"filename"`
}

// PhotoServiceConfig configures photo acceptance rules.
type PhotoServiceConfig struct {
	BaseURL      string
	MaxBytes     int64
	AllowedMIMEs []string
}

// PhotoService stores student photos on disk and keeps photo_path in sync.
type PhotoService struct {
	repo    photoRepository
	store   photoStorage
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     PhotoServiceConfig
	allowed map[string]struct{}
	now     func() time.Time
	random  func() int
}

// NewPhotoService constructs the photo service.
func NewPhotoService(repo photoRepository, store photoStorage, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg PhotoServiceConfig) *PhotoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = defaultPhotoMIMEs
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, m := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(m)] = struct{}{}
	}
	return &PhotoService{
		repo:    repo,
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		allowed: allowed,
		now:     time.Now,
		random:  func() int { return rand.IntN(1_000_000_000) },
	}
}

// MaxBytes is the largest accepted photo.
func (s *PhotoService) MaxBytes() int64 {
	return s.cfg.MaxBytes
}

// Upload stores the photo and makes it the student's current one. The
// replaced file, if any, is removed after the row has been updated.
func (s *PhotoService) Upload(ctx context.Context, studentID string, upload PhotoUpload) (*PhotoResult, error) {
	if !validStudentID(studentID) {
		s.metrics.RecordPhotoUpload("not_found")
		return nil, studentNotFound()
	}
	if upload.Body == nil {
		s.metrics.RecordPhotoUpload("rejected")
		return nil, appErrors.Clone(appErrors.ErrValidation, "No photo file provided")
	}
	if upload.Size > s.cfg.MaxBytes {
		s.metrics.RecordPhotoUpload("too_large")
		return nil, appErrors.ErrPayloadTooLarge
	}
	if !s.isAllowed(upload.ContentType) {
		s.metrics.RecordPhotoUpload("rejected")
		return nil, errOnlyImages()
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(upload.Body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		s.metrics.RecordPhotoUpload("failed")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to upload photo")
	}
	head = head[:n]
	detected := mimetype.Detect(head)
	if !s.isAllowed(detected.String()) {
		s.metrics.RecordPhotoUpload("rejected")
		return nil, errOnlyImages()
	}

	filename := s.newFilename(upload.OriginalName, detected)
	if _, err := s.store.SaveStream(filename, io.MultiReader(bytes.NewReader(head), upload.Body)); err != nil {
		s.metrics.RecordPhotoUpload("failed")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to upload photo")
	}

	previous, err := s.repo.SwapPhoto(ctx, studentID, filename)
	if err != nil {
		s.discard(filename)
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordPhotoUpload("not_found")
			return nil, studentNotFound()
		}
		s.metrics.RecordPhotoUpload("failed")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to upload photo")
	}
	if previous != "" && previous != filename {
		s.discard(previous)
	}

	invalidateStudentList(ctx, s.cache, s.logger)
	s.metrics.RecordPhotoUpload("stored")
	s.logger.Info("student photo stored", zap.String("student_id", studentID), zap.String("photo", filename))

	return &PhotoResult{Photo: models.PhotoURL(s.cfg.BaseURL, filename), Filename: filename}, nil
}

// Delete clears the student's photo and removes the file.
func (s *PhotoService) Delete(ctx context.Context, studentID string) error {
	if !validStudentID(studentID) {
		return studentNotFound()
	}
	previous, err := s.repo.SwapPhoto(ctx, studentID, "")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return studentNotFound()
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to delete photo")
	}
	if previous != "" {
		s.discard(previous)
	}
	invalidateStudentList(ctx, s.cache, s.logger)
	return nil
}

func (s *PhotoService) isAllowed(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	_, ok := s.allowed[mediaType]
	return ok
}

// newFilename keeps the client's extension only when it names the sniffed type.
func (s *PhotoService) newFilename(original string, detected *mimetype.MIME) string {
	ext := strings.ToLower(filepath.Ext(original))
	if !sameImageExt(ext, detected.Extension()) {
		ext = detected.Extension()
	}
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("%d-%09d%s", s.now().UnixMilli(), s.random(), ext)
}

func sameImageExt(ext, sniffed string) bool {
	switch ext {
	case "":
		return false
	case ".jpeg", ".jpe":
		ext = ".jpg"
	}
	return ext == sniffed
}

func (s *PhotoService) discard(filename string) {
	if err := s.store.Delete(filename); err != nil {
		s.logger.Warn("failed to remove photo file", zap.String("photo", filename), zap.Error(err))
	}
}

func errOnlyImages() error {
	return appErrors.Clone(appErrors.ErrValidation, "Only image files are allowed (JPEG, PNG, WebP, GIF)")
}
