package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyProfileMarshalsToDefaults(t *testing.T) {
	var p StudentProfile
	p.FullName = "Тестов Тест"
	p.Normalize()

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.JSONEq(t, `{}`, string(decoded["family"]))
	assert.JSONEq(t, `{}`, string(decoded["internalRegistry"]))
	assert.JSONEq(t, `{"isRegistered":false}`, string(decoded["policeRegistry"]))
	assert.JSONEq(t, `[]`, string(decoded["consultations"]))
	assert.JSONEq(t, `{"hasFacts":false,"incidents":[]}`, string(decoded["suicideRegistry"]))
}

func TestPoliceRegistryNormalizeClearsWhenUnregistered(t *testing.T) {
	r := PoliceRegistry{IsRegistered: false, Region: RegionAlmatyCity, District: "Медеуский", PoliceOrgan: "УП Медеуский района"}
	r.Normalize()
	assert.Equal(t, PoliceRegistry{}, r)

	kept := PoliceRegistry{IsRegistered: true, District: "Медеуский"}
	kept.Normalize()
	assert.Equal(t, "Медеуский", kept.District)
}

func TestInternalRegistryNormalizeKeepsRemovalOnlyWhenRemoved(t *testing.T) {
	r := InternalRegistry{Status: StatusRegistered, RemovalDate: "2024-05-01", RemovalGrounds: "исправился"}
	r.Normalize()
	assert.Empty(t, r.RemovalDate)
	assert.Empty(t, r.RemovalGrounds)

	removed := InternalRegistry{Status: StatusRemoved, RemovalDate: "2024-05-01"}
	removed.Normalize()
	assert.Equal(t, "2024-05-01", removed.RemovalDate)
}

func TestJSONColumnsRoundTrip(t *testing.T) {
	family := FamilyData{Mother: FamilyMember{FullName: "Иванова А."}, FamilyType: FamilyIncomplete, ChildrenCount: 2}
	value, err := family.Value()
	require.NoError(t, err)

	var scanned FamilyData
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, family, scanned)

	var empty Consultations
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	assert.NoError(t, scanned.Scan(nil))
	assert.Error(t, scanned.Scan(42))
}

func TestConsultationsLatest(t *testing.T) {
	_, ok := Consultations{}.Latest()
	assert.False(t, ok)

	c := Consultations{{ID: "a", Date: "2024-03-01"}, {ID: "b", Date: "2024-01-01"}}
	latest, ok := c.Latest()
	require.True(t, ok)
	assert.Equal(t, "b", latest.ID, "latest is the last entered, not the latest date")
}

func TestPhotoURL(t *testing.T) {
	assert.Equal(t, "", PhotoURL("http://localhost:3001", ""))
	assert.Equal(t, "http://localhost:3001/uploads/1-2.jpg", PhotoURL("http://localhost:3001/", "1-2.jpg"))
}

func TestDistrictHelpers(t *testing.T) {
	assert.Equal(t, AlmatyDistricts, DistrictsFor(RegionAlmatyCity))
	assert.Equal(t, OblastDistricts, DistrictsFor(RegionAlmatyOblast))
	assert.Nil(t, DistrictsFor("Астана"))
	assert.Equal(t, "УП Медеуский района", PoliceOrganFor("Медеуский"))
	assert.Equal(t, "", PoliceOrganFor(""))
}

func sampleRoster() []Student {
	mk := func(name, group, status string, police bool, district string) Student {
		s := Student{}
		s.FullName = name
		s.Group = group
		s.InternalRegistry.Status = status
		s.PoliceRegistry = PoliceRegistry{IsRegistered: police, District: district}
		return s
	}
	return []Student{
		mk("Алиев Арман", "ПО-21", StatusRegistered, true, "Медеуский"),
		mk("Болатова Дана", "ПО-22", StatusRemoved, false, ""),
		mk("Сериков Ержан", "ПО-21", "", true, "Алатауский"),
		mk("Ким Анна", "", StatusRegistered, false, ""),
	}
}

func TestStudentFilter(t *testing.T) {
	roster := sampleRoster()

	assert.Len(t, StudentFilter{}.Apply(roster), 4)
	assert.False(t, StudentFilter{}.Active())

	bySearch := StudentFilter{Search: "АРМАН"}.Apply(roster)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "Алиев Арман", bySearch[0].FullName)

	assert.Len(t, StudentFilter{Group: "ПО-21"}.Apply(roster), 2)
	assert.Len(t, StudentFilter{District: "Алатауский"}.Apply(roster), 1)
	assert.Len(t, StudentFilter{Status: StatusRegistered}.Apply(roster), 2)
	assert.Len(t, StudentFilter{Status: StatusRemoved}.Apply(roster), 1)
	assert.Len(t, StudentFilter{Status: StatusPolice}.Apply(roster), 2)
	assert.Len(t, StudentFilter{Status: StatusPolice, Group: "ПО-21", Search: "сер"}.Apply(roster), 1)
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(sampleRoster())

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.TotalActive)
	assert.Equal(t, 2, stats.TotalPolice)
	assert.Equal(t, 1, stats.TotalRemoved)
	assert.Equal(t, []string{"ПО-21", "ПО-22"}, stats.Groups)
	assert.Equal(t, []string{"Алатауский", "Медеуский"}, stats.Districts)
}
