package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/atfitk/websystem-api/internal/models"
)

const studentColumns = `id, full_name, birth_date, group_name, iin, previous_school, specialty, course, address, phone, photo_path,
family, internal_registry, police_registry, consultations,
psychologist_registry, support_group, psychiatrist_registry, cpp_accompaniment, suicide_registry,
created_at, updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns every student, newest first.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY created_at DESC`
	students := make([]models.Student, 0)
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &student, nil
}

// Create inserts the profile and returns the stored row with its generated id.
func (r *StudentRepository) Create(ctx context.Context, profile *models.StudentProfile) (*models.Student, error) {
	query := `INSERT INTO students (
full_name, birth_date, group_name, iin, previous_school, specialty, course, address, phone,
family, internal_registry, police_registry, consultations,
psychologist_registry, support_group, psychiatrist_registry, cpp_accompaniment, suicide_registry
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
RETURNING ` + studentColumns
	var student models.Student
	if err := r.db.QueryRowxContext(ctx, query, profileArgs(profile)...).StructScan(&student); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	return &student, nil
}

// Update overwrites every profile column of the student. Returns sql.ErrNoRows when absent.
func (r *StudentRepository) Update(ctx context.Context, id string, profile *models.StudentProfile) (*models.Student, error) {
	query := `UPDATE students SET
full_name = $1, birth_date = $2, group_name = $3, iin = $4, previous_school = $5, specialty = $6,
course = $7, address = $8, phone = $9, family = $10, internal_registry = $11, police_registry = $12,
consultations = $13, psychologist_registry = $14, support_group = $15, psychiatrist_registry = $16,
cpp_accompaniment = $17, suicide_registry = $18, updated_at = NOW()
WHERE id = $19
RETURNING ` + studentColumns
	args := append(profileArgs(profile), id)
	var student models.Student
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update student: %w", err)
	}
	return &student, nil
}

// Delete removes the student and returns the photo filename it held ("" when none).
func (r *StudentRepository) Delete(ctx context.Context, id string) (string, error) {
	const query = `DELETE FROM students WHERE id = $1 RETURNING photo_path`
	var photo sql.NullString
	if err := r.db.QueryRowxContext(ctx, query, id).Scan(&photo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("delete student: %w", err)
	}
	return photo.String, nil
}

// SwapPhoto stores filename as the student's photo and returns the previous
// filename. The row lock makes concurrent swaps observe each other, so every
// replaced file is reported exactly once. An empty filename clears the photo.
func (r *StudentRepository) SwapPhoto(ctx context.Context, id, filename string) (string, error) {
	const query = `WITH prev AS (
SELECT id, photo_path FROM students WHERE id = $1 FOR UPDATE
)
UPDATE students s SET photo_path = $2, updated_at = NOW()
FROM prev WHERE s.id = prev.id
RETURNING prev.photo_path`
	var next sql.NullString
	if filename != "" {
		next = sql.NullString{String: filename, Valid: true}
	}
	var prev sql.NullString
	if err := r.db.QueryRowxContext(ctx, query, id, next).Scan(&prev); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("swap student photo: %w", err)
	}
	return prev.String, nil
}

func profileArgs(p *models.StudentProfile) []interface{} {
	return []interface{}{
		p.FullName,
		p.BirthDate,
		p.Group,
		p.IIN,
		p.PreviousSchool,
		p.Specialty,
		p.Course,
		p.Address,
		p.Phone,
		p.Family,
		p.InternalRegistry,
		p.PoliceRegistry,
		p.Consultations,
		p.PsychologistRegistry,
		p.SupportGroup,
		p.PsychiatristRegistry,
		p.CppAccompaniment,
		p.SuicideRegistry,
	}
}
