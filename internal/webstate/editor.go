package webstate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atfitk/websystem-api/internal/models"
)

// Tab is a section of the student form.
type Tab string

const (
	TabBasic      Tab = "basic"
	TabFamily     Tab = "family"
	TabInternal   Tab = "internal"
	TabPolice     Tab = "police"
	TabPsychology Tab = "psychology"
)

// ErrFullNameRequired is returned when saving a form without a name.
var ErrFullNameRequired = errors.New("full name is required")

// FullNameRequiredMessage is what the user sees for ErrFullNameRequired.
const FullNameRequiredMessage = "Введите ФИО студента"

// Action is one edit of the form. The set of actions is closed; every
// variant is declared in this file.
type Action interface {
	apply(e *Editor)
}

type BasicField int

const (
	FieldFullName BasicField = iota
	FieldBirthDate
	FieldGroup
	FieldIIN
	FieldPreviousSchool
	FieldSpecialty
	FieldCourse
	FieldAddress
	FieldPhone
)

// SetBasic edits a scalar field of the basic tab.
type SetBasic struct {
	Field BasicField
	Value string
}

func (a SetBasic) apply(e *Editor) {
	p := &e.form
	switch a.Field {
	case FieldFullName:
		p.FullName = a.Value
	case FieldBirthDate:
		p.BirthDate = a.Value
	case FieldGroup:
		p.Group = a.Value
	case FieldIIN:
		p.IIN = a.Value
	case FieldPreviousSchool:
		p.PreviousSchool = a.Value
	case FieldSpecialty:
		p.Specialty = a.Value
	case FieldCourse:
		p.Course = a.Value
	case FieldAddress:
		p.Address = a.Value
	case FieldPhone:
		p.Phone = a.Value
	}
}

type FamilyRole int

const (
	Mother FamilyRole = iota
	Father
	GuardianRole
)

type MemberField int

const (
	MemberFullName MemberField = iota
	MemberWorkplace
	MemberPhone
	// MemberRelationship applies to the guardian only.
	MemberRelationship
)

// SetFamilyMember edits one field of the mother, father or guardian.
type SetFamilyMember struct {
	Member FamilyRole
	Field  MemberField
	Value  string
}

func (a SetFamilyMember) apply(e *Editor) {
	f := &e.form.Family
	if a.Member == GuardianRole {
		switch a.Field {
		case MemberFullName:
			f.Guardian.FullName = a.Value
		case MemberRelationship:
			f.Guardian.Relationship = a.Value
		case MemberPhone:
			f.Guardian.Phone = a.Value
		}
		return
	}

	m := &f.Mother
	if a.Member == Father {
		m = &f.Father
	}
	switch a.Field {
	case MemberFullName:
		m.FullName = a.Value
	case MemberWorkplace:
		m.Workplace = a.Value
	case MemberPhone:
		m.Phone = a.Value
	}
}

type SetFamilyType struct{ Type string }

func (a SetFamilyType) apply(e *Editor) { e.form.Family.FamilyType = a.Type }

// SetChildrenCount clamps negative counts to zero.
type SetChildrenCount struct{ Count int }

func (a SetChildrenCount) apply(e *Editor) { e.form.Family.ChildrenCount = max(a.Count, 0) }

type SetSocialStatus struct{ Value string }

func (a SetSocialStatus) apply(e *Editor) { e.form.Family.SocialStatus = a.Value }

// ToggleGround selects or deselects an internal registry ground.
type ToggleGround struct{ Ground string }

func (a ToggleGround) apply(e *Editor) {
	r := &e.form.InternalRegistry
	for i, g := range r.Grounds {
		if g == a.Ground {
			r.Grounds = append(r.Grounds[:i:i], r.Grounds[i+1:]...)
			return
		}
	}
	r.Grounds = append(r.Grounds, a.Ground)
}

type InternalField int

const (
	InternalRegistrationDate InternalField = iota
	InternalResponsible
	InternalPreventiveWork
	InternalResult
	InternalRemovalDate
	InternalRemovalGrounds
)

type SetInternal struct {
	Field InternalField
	Value string
}

func (a SetInternal) apply(e *Editor) {
	r := &e.form.InternalRegistry
	switch a.Field {
	case InternalRegistrationDate:
		r.RegistrationDate = a.Value
	case InternalResponsible:
		r.Responsible = a.Value
	case InternalPreventiveWork:
		r.PreventiveWork = a.Value
	case InternalResult:
		r.Result = a.Value
	case InternalRemovalDate:
		r.RemovalDate = a.Value
	case InternalRemovalGrounds:
		r.RemovalGrounds = a.Value
	}
}

type SetInternalStatus struct{ Status string }

func (a SetInternalStatus) apply(e *Editor) { e.form.InternalRegistry.Status = a.Status }

// SetPoliceRegistered toggles the УП registration. Deregistering clears
// every sub-field.
type SetPoliceRegistered struct{ Registered bool }

func (a SetPoliceRegistered) apply(e *Editor) {
	if !a.Registered {
		e.form.PoliceRegistry = models.PoliceRegistry{}
		return
	}
	e.form.PoliceRegistry.IsRegistered = true
}

// SetPoliceRegion resets the district and police organ.
type SetPoliceRegion struct{ Region string }

func (a SetPoliceRegion) apply(e *Editor) {
	r := &e.form.PoliceRegistry
	r.Region = a.Region
	r.District = ""
	r.PoliceOrgan = ""
}

// SetPoliceDistrict also derives the police organ.
type SetPoliceDistrict struct{ District string }

func (a SetPoliceDistrict) apply(e *Editor) {
	r := &e.form.PoliceRegistry
	r.District = a.District
	r.PoliceOrgan = models.PoliceOrganFor(a.District)
}

type PoliceField int

const (
	PoliceRegistrationType PoliceField = iota
	PoliceRegistrationDate
	PoliceGrounds
	PoliceInspector
	PoliceRemovalDate
	PoliceRemovalGrounds
)

type SetPolice struct {
	Field PoliceField
	Value string
}

func (a SetPolice) apply(e *Editor) {
	r := &e.form.PoliceRegistry
	switch a.Field {
	case PoliceRegistrationType:
		r.RegistrationType = a.Value
	case PoliceRegistrationDate:
		r.RegistrationDate = a.Value
	case PoliceGrounds:
		r.Grounds = a.Value
	case PoliceInspector:
		r.Inspector = a.Value
	case PoliceRemovalDate:
		r.RemovalDate = a.Value
	case PoliceRemovalGrounds:
		r.RemovalGrounds = a.Value
	}
}

// AddConsultation appends an empty entry dated today.
type AddConsultation struct{}

func (AddConsultation) apply(e *Editor) {
	e.form.Consultations = append(e.form.Consultations, models.Consultation{
		ID:   e.newID(),
		Date: e.today(),
	})
}

type ConsultationField int

const (
	ConsultationDate ConsultationField = iota
	ConsultationWorkType
	ConsultationDescription
	ConsultationProblems
	ConsultationRecommendations
	ConsultationConclusion
	ConsultationDynamics
)

// UpdateConsultation edits the entry at Index; out-of-range indexes are ignored.
type UpdateConsultation struct {
	Index int
	Field ConsultationField
	Value string
}

func (a UpdateConsultation) apply(e *Editor) {
	if a.Index < 0 || a.Index >= len(e.form.Consultations) {
		return
	}
	c := &e.form.Consultations[a.Index]
	switch a.Field {
	case ConsultationDate:
		c.Date = a.Value
	case ConsultationWorkType:
		c.WorkType = a.Value
	case ConsultationDescription:
		c.Description = a.Value
	case ConsultationProblems:
		c.Problems = a.Value
	case ConsultationRecommendations:
		c.Recommendations = a.Value
	case ConsultationConclusion:
		c.Conclusion = a.Value
	case ConsultationDynamics:
		c.Dynamics = a.Value
	}
}

type RemoveConsultation struct{ Index int }

func (a RemoveConsultation) apply(e *Editor) {
	list := e.form.Consultations
	if a.Index < 0 || a.Index >= len(list) {
		return
	}
	e.form.Consultations = append(list[:a.Index:a.Index], list[a.Index+1:]...)
}

// AddIncident appends an empty suicide registry incident dated today and
// marks the registry as having facts.
type AddIncident struct{}

func (AddIncident) apply(e *Editor) {
	r := &e.form.SuicideRegistry
	r.HasFacts = true
	r.Incidents = append(r.Incidents, models.SuicideIncident{
		ID:   e.newID(),
		Date: e.today(),
	})
}

type IncidentField int

const (
	IncidentDate IncidentField = iota
	IncidentType
	IncidentDescription
	IncidentMeasures
	IncidentSpecialist
	IncidentNotes
)

type UpdateIncident struct {
	Index int
	Field IncidentField
	Value string
}

func (a UpdateIncident) apply(e *Editor) {
	incidents := e.form.SuicideRegistry.Incidents
	if a.Index < 0 || a.Index >= len(incidents) {
		return
	}
	in := &incidents[a.Index]
	switch a.Field {
	case IncidentDate:
		in.Date = a.Value
	case IncidentType:
		in.Type = a.Value
	case IncidentDescription:
		in.Description = a.Value
	case IncidentMeasures:
		in.Measures = a.Value
	case IncidentSpecialist:
		in.Specialist = a.Value
	case IncidentNotes:
		in.Notes = a.Value
	}
}

type IncidentFlag int

const (
	IncidentParentNotified IncidentFlag = iota
	IncidentPoliceNotified
	IncidentHospitalized
)

type SetIncidentFlag struct {
	Index int
	Flag  IncidentFlag
	Value bool
}

func (a SetIncidentFlag) apply(e *Editor) {
	incidents := e.form.SuicideRegistry.Incidents
	if a.Index < 0 || a.Index >= len(incidents) {
		return
	}
	in := &incidents[a.Index]
	switch a.Flag {
	case IncidentParentNotified:
		in.ParentNotified = a.Value
	case IncidentPoliceNotified:
		in.PoliceNotified = a.Value
	case IncidentHospitalized:
		in.Hospitalized = a.Value
	}
}

type RemoveIncident struct{ Index int }

func (a RemoveIncident) apply(e *Editor) {
	r := &e.form.SuicideRegistry
	if a.Index < 0 || a.Index >= len(r.Incidents) {
		return
	}
	r.Incidents = append(r.Incidents[:a.Index:a.Index], r.Incidents[a.Index+1:]...)
}

type RegistryFlag int

const (
	FlagPsychologistRegistered RegistryFlag = iota
	FlagSupportGroupMember
	FlagPsychiatristRegistered
	FlagCppActive
	FlagSuicideFacts
)

// SetRegistryFlag flips the gate of an extended registry section.
type SetRegistryFlag struct {
	Flag  RegistryFlag
	Value bool
}

func (a SetRegistryFlag) apply(e *Editor) {
	p := &e.form
	switch a.Flag {
	case FlagPsychologistRegistered:
		p.PsychologistRegistry.IsRegistered = a.Value
	case FlagSupportGroupMember:
		p.SupportGroup.IsMember = a.Value
	case FlagPsychiatristRegistered:
		p.PsychiatristRegistry.IsRegistered = a.Value
	case FlagCppActive:
		p.CppAccompaniment.IsActive = a.Value
	case FlagSuicideFacts:
		p.SuicideRegistry.HasFacts = a.Value
	}
}

// The extended registries are edited as whole sections.

type SetPsychologistRegistry struct{ Registry models.PsychologistRegistry }

func (a SetPsychologistRegistry) apply(e *Editor) { e.form.PsychologistRegistry = a.Registry }

type SetSupportGroup struct{ Group models.SupportGroup }

func (a SetSupportGroup) apply(e *Editor) { e.form.SupportGroup = a.Group }

type SetPsychiatristRegistry struct{ Registry models.PsychiatristRegistry }

func (a SetPsychiatristRegistry) apply(e *Editor) { e.form.PsychiatristRegistry = a.Registry }

type SetCppAccompaniment struct{ Accompaniment models.CppAccompaniment }

func (a SetCppAccompaniment) apply(e *Editor) { e.form.CppAccompaniment = a.Accompaniment }

// Editor is the state of the student form.
type Editor struct {
	mu    sync.Mutex
	id    string
	form  models.StudentProfile
	tab   Tab
	dirty bool

	now   func() time.Time
	newID func() string
}

// NewEditor starts an empty form for a new student.
func NewEditor() *Editor {
	return &Editor{
		form: models.StudentProfile{
			Consultations:    models.Consultations{},
			InternalRegistry: models.InternalRegistry{Grounds: []string{}},
			SuicideRegistry:  models.SuicideRegistry{Incidents: []models.SuicideIncident{}},
		},
		tab:   TabBasic,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// EditStudent starts a form pre-filled from an existing record.
func EditStudent(student models.Student) *Editor {
	e := NewEditor()
	e.id = student.ID
	e.form = cloneProfile(student.StudentProfile)
	return e
}

// Dispatch applies actions in order.
func (e *Editor) Dispatch(actions ...Action) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, a := range actions {
		a.apply(e)
	}
	if len(actions) > 0 {
		e.dirty = true
	}
}

// StudentID is empty for a new record.
func (e *Editor) StudentID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

func (e *Editor) IsNew() bool { return e.StudentID() == "" }

func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

func (e *Editor) Tab() Tab {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tab
}

func (e *Editor) SetTab(tab Tab) {
	e.mu.Lock()
	e.tab = tab
	e.mu.Unlock()
}

// Form returns a copy of the current form values.
func (e *Editor) Form() models.StudentProfile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneProfile(e.form)
}

// Districts lists the districts selectable for the chosen police region.
func (e *Editor) Districts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.DistrictsFor(e.form.PoliceRegistry.Region)
}

// Validate checks the form; a missing name switches to the basic tab.
func (e *Editor) Validate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validate()
}

// Payload returns the normalized profile ready to send.
func (e *Editor) Payload() (models.StudentProfile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.validate(); err != nil {
		return models.StudentProfile{}, err
	}
	payload := cloneProfile(e.form)
	payload.Normalize()
	return payload, nil
}

// Save creates or updates the student through the roster. On success the
// editor is bound to the saved record.
func (e *Editor) Save(ctx context.Context, roster *Roster) (*models.Student, error) {
	payload, err := e.Payload()
	if err != nil {
		return nil, err
	}

	var saved *models.Student
	if id := e.StudentID(); id == "" {
		saved, err = roster.Add(ctx, payload)
	} else {
		saved, err = roster.Update(ctx, id, payload)
	}
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.id = saved.ID
	e.dirty = false
	e.mu.Unlock()
	return saved, nil
}

func (e *Editor) validate() error {
	if strings.TrimSpace(e.form.FullName) == "" {
		e.tab = TabBasic
		return ErrFullNameRequired
	}
	return nil
}

func (e *Editor) today() string {
	return e.now().Format(time.DateOnly)
}

func cloneProfile(p models.StudentProfile) models.StudentProfile {
	out := p
	out.InternalRegistry.Grounds = append([]string{}, p.InternalRegistry.Grounds...)
	out.Consultations = append(models.Consultations{}, p.Consultations...)
	out.SuicideRegistry.Incidents = append([]models.SuicideIncident{}, p.SuicideRegistry.Incidents...)
	return out
}
