package models

import (
	"strings"
	"time"
)

// StudentProfile is the editable part of a student record. POST and PUT both
// carry the full profile; PUT replaces every column.
type StudentProfile struct {
	FullName             string               `db:"full_name" json:"fullName" validate:"required"`
	BirthDate            string               `db:"birth_date" json:"birthDate"`
	Group                string               `db:"group_name" json:"group"`
	IIN                  string               `db:"iin" json:"iin"`
	PreviousSchool       string               `db:"previous_school" json:"previousSchool"`
	Specialty            string               `db:"specialty" json:"specialty"`
	Course               string               `db:"course" json:"course"`
	Address              string               `db:"address" json:"address"`
	Phone                string               `db:"phone" json:"phone"`
	Family               FamilyData           `db:"family" json:"family"`
	InternalRegistry     InternalRegistry     `db:"internal_registry" json:"internalRegistry"`
	PoliceRegistry       PoliceRegistry       `db:"police_registry" json:"policeRegistry"`
	Consultations        Consultations        `db:"consultations" json:"consultations" validate:"dive"`
	PsychologistRegistry PsychologistRegistry `db:"psychologist_registry" json:"psychologistRegistry"`
	SupportGroup         SupportGroup         `db:"support_group" json:"supportGroup"`
	PsychiatristRegistry PsychiatristRegistry `db:"psychiatrist_registry" json:"psychiatristRegistry"`
	CppAccompaniment     CppAccompaniment     `db:"cpp_accompaniment" json:"cppAccompaniment"`
	SuicideRegistry      SuicideRegistry      `db:"suicide_registry" json:"suicideRegistry"`
}

// Student is a row of the students table in its external shape.
type Student struct {
	ID string `db:"id" json:"id"`
	StudentProfile
	PhotoPath *string   `db:"photo_path" json:"-"`
	Photo     string    `db:"-" json:"photo"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Normalize trims the name and enforces the registry gating rules.
func (p *StudentProfile) Normalize() {
	p.FullName = strings.TrimSpace(p.FullName)
	p.InternalRegistry.Normalize()
	p.PoliceRegistry.Normalize()
	if p.Consultations == nil {
		p.Consultations = Consultations{}
	}
	if p.SuicideRegistry.Incidents == nil {
		p.SuicideRegistry.Incidents = []SuicideIncident{}
	}
}

// PhotoFile returns the stored photo filename, or "" when none is set.
func (s Student) PhotoFile() string {
	if s.PhotoPath == nil {
		return ""
	}
	return *s.PhotoPath
}

// PhotoURL builds the public URL for a stored photo filename.
func PhotoURL(baseURL, filename string) string {
	if filename == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/uploads/" + filename
}
