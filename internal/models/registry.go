package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Registry status values shared by the internal, psychologist and psychiatrist registries.
const (
	StatusRegistered = "На учете"
	StatusRemoved    = "Снят"
)

// Family types.
const (
	FamilyComplete   = "Полная"
	FamilyIncomplete = "Неполная"
)

// Police registry regions; each has its own district list.
const (
	RegionAlmatyCity   = "г. Алматы"
	RegionAlmatyOblast = "Алматинская область"
)

// InternalRegistryGrounds is the closed set of grounds for the college registry.
var InternalRegistryGrounds = []string{
	"Неуспеваемость",
	"Прогулы занятий",
	"Агрессивное поведение",
	"Конфликтность",
	"Употребление ПАВ",
	"Правонарушения",
	"Трудная жизненная ситуация",
	"Социально опасное положение",
	"Другое",
}

var AlmatyDistricts = []string{
	"Алатауский",
	"Алмалинский",
	"Ауэзовский",
	"Бостандыкский",
	"Жетысуский",
	"Медеуский",
	"Наурызбайский",
	"Турксибский",
}

var OblastDistricts = []string{
	"Балхашский",
	"Енбекшиказахский",
	"Жамбылский",
	"Илийский",
	"Карасайский",
	"Кегенский",
	"Райымбекский",
	"Талгарский",
	"Уйгурский",
}

var PoliceRegistryTypes = []string{
	"Профилактический учет в ОЮП «Несовершеннолетний, не посещающий по неуважительным причинам»",
	"Учет за административное правонарушение",
	"Учет за уголовное правонарушение",
	"Учет несовершеннолетнего в социально опасном положении",
	"Учет безнадзорного или склонного к бродяжничеству",
	"Учет за нарушение общественного порядка",
	"Учет за употребление психоактивных, токсических веществ, наркотических средств, спиртных напитков, табакокурение. Учет несовершеннолетнего группы риска",
	"Учет неблагополучной семьи",
	"Игровая и интернет-зависимость, лудомания",
	"Учет условно осужденного несовершеннолетнего",
}

// SuicideIncidentTypes lists the accepted incident kinds.
var SuicideIncidentTypes = []string{
	"Суицид",
	"Попытка суицида",
	"Суицидальные мысли",
	"Суицидальные угрозы",
}

// DistrictsFor returns the district list of a police region, or nil for unknown regions.
func DistrictsFor(region string) []string {
	switch region {
	case RegionAlmatyCity:
		return AlmatyDistricts
	case RegionAlmatyOblast:
		return OblastDistricts
	default:
		return nil
	}
}

// PoliceOrganFor derives the police unit name from the district.
func PoliceOrganFor(district string) string {
	if district == "" {
		return ""
	}
	return "УП " + district + " района"
}

type FamilyMember struct {
	FullName  string `json:"fullName,omitempty"`
	Workplace string `json:"workplace,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type Guardian struct {
	FullName     string `json:"fullName,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// FamilyData is stored in students.family.
type FamilyData struct {
	Mother        FamilyMember `json:"mother,omitzero"`
	Father        FamilyMember `json:"father,omitzero"`
	Guardian      Guardian     `json:"guardian,omitzero"`
	FamilyType    string       `json:"familyType,omitempty" validate:"omitempty,family_type"`
	ChildrenCount int          `json:"childrenCount,omitempty" validate:"gte=0"`
	SocialStatus  string       `json:"socialStatus,omitempty"`
}

func (f *FamilyData) Scan(src interface{}) error { return scanJSON(src, f) }
func (f FamilyData) Value() (driver.Value, error) { return valueJSON(f) }

// InternalRegistry is the college's own preventive registry.
type InternalRegistry struct {
	RegistrationDate string   `json:"registrationDate,omitempty"`
	Grounds          []string `json:"grounds,omitempty" validate:"dive,registry_ground"`
	Responsible      string   `json:"responsible,omitempty"`
	PreventiveWork   string   `json:"preventiveWork,omitempty"`
	Result           string   `json:"result,omitempty"`
	Status           string   `json:"status,omitempty" validate:"omitempty,registry_status"`
	RemovalDate      string   `json:"removalDate,omitempty"`
	RemovalGrounds   string   `json:"removalGrounds,omitempty"`
}

// Normalize drops removal details unless the student was actually removed.
func (r *InternalRegistry) Normalize() {
	if r.Status != StatusRemoved {
		r.RemovalDate = ""
		r.RemovalGrounds = ""
	}
}

func (r *InternalRegistry) Scan(src interface{}) error { return scanJSON(src, r) }
func (r InternalRegistry) Value() (driver.Value, error) { return valueJSON(r) }

// HasGround reports whether ground is selected.
func (r InternalRegistry) HasGround(ground string) bool {
	for _, g := range r.Grounds {
		if g == ground {
			return true
		}
	}
	return false
}

// PoliceRegistry is the law-enforcement (УП) registration. IsRegistered gates every other field.
type PoliceRegistry struct {
	IsRegistered     bool   `json:"isRegistered"`
	Region           string `json:"region,omitempty"`
	District         string `json:"district,omitempty"`
	PoliceOrgan      string `json:"policeOrgan,omitempty"`
	RegistrationType string `json:"registrationType,omitempty"`
	RegistrationDate string `json:"registrationDate,omitempty"`
	Grounds          string `json:"grounds,omitempty"`
	Inspector        string `json:"inspector,omitempty"`
	RemovalDate      string `json:"removalDate,omitempty"`
	RemovalGrounds   string `json:"removalGrounds,omitempty"`
}

// Normalize clears every sub-field when the student is not registered.
func (r *PoliceRegistry) Normalize() {
	if !r.IsRegistered {
		*r = PoliceRegistry{}
	}
}

func (r *PoliceRegistry) Scan(src interface{}) error { return scanJSON(src, r) }
func (r PoliceRegistry) Value() (driver.Value, error) { return valueJSON(r) }

// Consultation is a single psychologist session log entry.
type Consultation struct {
	ID              string `json:"id"`
	Date            string `json:"date,omitempty"`
	WorkType        string `json:"workType,omitempty"`
	Description     string `json:"description,omitempty"`
	Problems        string `json:"problems,omitempty"`
	Recommendations string `json:"recommendations,omitempty"`
	Conclusion      string `json:"conclusion,omitempty"`
	Dynamics        string `json:"dynamics,omitempty"`
}

// Consultations keeps entry order; the last element is the latest session.
type Consultations []Consultation

func (c *Consultations) Scan(src interface{}) error { return scanJSON(src, c) }

func (c Consultations) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return valueJSON([]Consultation(c))
}

// MarshalJSON always renders an array, never null.
func (c Consultations) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Consultation(c))
}

// Latest returns the most recently entered consultation.
func (c Consultations) Latest() (Consultation, bool) {
	if len(c) == 0 {
		return Consultation{}, false
	}
	return c[len(c)-1], true
}

// PsychologistRegistry is registration with the college psychologist.
type PsychologistRegistry struct {
	IsRegistered     bool   `json:"isRegistered"`
	RegistrationDate string `json:"registrationDate,omitempty"`
	Grounds          string `json:"grounds,omitempty"`
	Responsible      string `json:"responsible,omitempty"`
	PreventiveWork   string `json:"preventiveWork,omitempty"`
	Status           string `json:"status,omitempty" validate:"omitempty,registry_status"`
	RemovalDate      string `json:"removalDate,omitempty"`
	RemovalGrounds   string `json:"removalGrounds,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

func (r *PsychologistRegistry) Scan(src interface{}) error { return scanJSON(src, r) }
func (r PsychologistRegistry) Value() (driver.Value, error) { return valueJSON(r) }

// SupportGroup is membership in a support (accompaniment) group.
type SupportGroup struct {
	IsMember        bool   `json:"isMember"`
	GroupName       string `json:"groupName,omitempty"`
	JoinDate        string `json:"joinDate,omitempty"`
	Responsible     string `json:"responsible,omitempty"`
	WorkDescription string `json:"workDescription,omitempty"`
	Result          string `json:"result,omitempty"`
	ExitDate        string `json:"exitDate,omitempty"`
	ExitGrounds     string `json:"exitGrounds,omitempty"`
}

func (g *SupportGroup) Scan(src interface{}) error { return scanJSON(src, g) }
func (g SupportGroup) Value() (driver.Value, error) { return valueJSON(g) }

// PsychiatristRegistry is registration with a psychiatrist or the ЦПП.
type PsychiatristRegistry struct {
	IsRegistered     bool   `json:"isRegistered"`
	Organization     string `json:"organization,omitempty"`
	RegistrationDate string `json:"registrationDate,omitempty"`
	Diagnosis        string `json:"diagnosis,omitempty"`
	Doctor           string `json:"doctor,omitempty"`
	TreatmentPlace   string `json:"treatmentPlace,omitempty"`
	Status           string `json:"status,omitempty" validate:"omitempty,registry_status"`
	RemovalDate      string `json:"removalDate,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

func (r *PsychiatristRegistry) Scan(src interface{}) error { return scanJSON(src, r) }
func (r PsychiatristRegistry) Value() (driver.Value, error) { return valueJSON(r) }

// CppAccompaniment is ongoing ЦПП support.
type CppAccompaniment struct {
	IsActive   bool   `json:"isActive"`
	StartDate  string `json:"startDate,omitempty"`
	Specialist string `json:"specialist,omitempty"`
	WorkType   string `json:"workType,omitempty"`
	Goals      string `json:"goals,omitempty"`
	Results    string `json:"results,omitempty"`
	EndDate    string `json:"endDate,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func (a *CppAccompaniment) Scan(src interface{}) error { return scanJSON(src, a) }
func (a CppAccompaniment) Value() (driver.Value, error) { return valueJSON(a) }

type SuicideIncident struct {
	ID             string `json:"id"`
	Date           string `json:"date,omitempty"`
	Type           string `json:"type,omitempty" validate:"omitempty,incident_type"`
	Description    string `json:"description,omitempty"`
	Measures       string `json:"measures,omitempty"`
	Specialist     string `json:"specialist,omitempty"`
	ParentNotified bool   `json:"parentNotified"`
	PoliceNotified bool   `json:"policeNotified"`
	Hospitalized   bool   `json:"hospitalized"`
	Notes          string `json:"notes,omitempty"`
}

// SuicideRegistry records safety incidents.
type SuicideRegistry struct {
	HasFacts  bool              `json:"hasFacts"`
	Incidents []SuicideIncident `json:"incidents" validate:"dive"`
}

func (r *SuicideRegistry) Scan(src interface{}) error { return scanJSON(src, r) }

func (r SuicideRegistry) Value() (driver.Value, error) {
	if r.Incidents == nil {
		r.Incidents = []SuicideIncident{}
	}
	return valueJSON(r)
}

// MarshalJSON keeps incidents an array.
func (r SuicideRegistry) MarshalJSON() ([]byte, error) {
	type plain SuicideRegistry
	if r.Incidents == nil {
		r.Incidents = []SuicideIncident{}
	}
	return json.Marshal(plain(r))
}

func scanJSON(src interface{}, dst interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func valueJSON(v interface{}) (driver.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
