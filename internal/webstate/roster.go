package webstate

import (
	"context"
	"slices"
	"sync"

	"github.com/atfitk/websystem-api/internal/models"
)

type rosterAPI interface {
	ListStudents(ctx context.Context) ([]models.Student, error)
	CreateStudent(ctx context.Context, profile models.StudentProfile) (*models.Student, error)
	UpdateStudent(ctx context.Context, id string, profile models.StudentProfile) (*models.Student, error)
	DeleteStudent(ctx context.Context, id string) (string, error)
}

// Roster is the in-memory student list. Mutations go through the API first
// and the list mirrors what the server echoed back.
type Roster struct {
	mu       sync.RWMutex
	api      rosterAPI
	students []models.Student
	loaded   bool
}

func NewRoster(api rosterAPI) *Roster {
	return &Roster{api: api}
}

// Load fetches the list on first use; later calls are no-ops.
func (r *Roster) Load(ctx context.Context) error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}
	return r.Refresh(ctx)
}

// Refresh always refetches the list.
func (r *Roster) Refresh(ctx context.Context) error {
	students, err := r.api.ListStudents(ctx)
	if err != nil {
		return err
	}
	if students == nil {
		students = []models.Student{}
	}

	r.mu.Lock()
	r.students = students
	r.loaded = true
	r.mu.Unlock()
	return nil
}

func (r *Roster) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Students returns a deep copy of the list, newest first.
func (r *Roster) Students() []models.Student {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneStudents(r.students)
}

func (r *Roster) Find(id string) (models.Student, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.students {
		if s.ID == id {
			return cloneStudent(s), true
		}
	}
	return models.Student{}, false
}

// Add creates the student and prepends the server's copy.
func (r *Roster) Add(ctx context.Context, profile models.StudentProfile) (*models.Student, error) {
	created, err := r.api.CreateStudent(ctx, profile)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.students = append([]models.Student{*created}, r.students...)
	r.mu.Unlock()
	return created, nil
}

// Update saves the student and swaps in the server's copy by id.
func (r *Roster) Update(ctx context.Context, id string, profile models.StudentProfile) (*models.Student, error) {
	updated, err := r.api.UpdateStudent(ctx, id, profile)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	for i := range r.students {
		if r.students[i].ID == updated.ID {
			r.students[i] = *updated
			break
		}
	}
	r.mu.Unlock()
	return updated, nil
}

// SetPhoto records a freshly uploaded photo URL for a listed student.
func (r *Roster) SetPhoto(id, photo string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.students {
		if r.students[i].ID == id {
			r.students[i].Photo = photo
			return
		}
	}
}

// Remove deletes the student on the server, then drops it locally.
func (r *Roster) Remove(ctx context.Context, id string) error {
	if _, err := r.api.DeleteStudent(ctx, id); err != nil {
		return err
	}

	r.mu.Lock()
	kept := r.students[:0:0]
	for _, s := range r.students {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	r.students = kept
	r.mu.Unlock()
	return nil
}

// Filter applies the dashboard filters to the loaded list.
func (r *Roster) Filter(filter models.StudentFilter) []models.Student {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneStudents(filter.Apply(r.students))
}

func (r *Roster) Stats() models.RosterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return models.ComputeStats(r.students)
}

func cloneStudents(in []models.Student) []models.Student {
	out := make([]models.Student, len(in))
	for i := range in {
		out[i] = cloneStudent(in[i])
	}
	return out
}

// cloneStudent copies every slice and pointer so callers cannot reach the
// roster's backing arrays.
func cloneStudent(s models.Student) models.Student {
	out := s
	out.InternalRegistry.Grounds = slices.Clone(s.InternalRegistry.Grounds)
	out.Consultations = slices.Clone(s.Consultations)
	out.SuicideRegistry.Incidents = slices.Clone(s.SuicideRegistry.Incidents)
	if s.PhotoPath != nil {
		photo := *s.PhotoPath
		out.PhotoPath = &photo
	}
	return out
}
