package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lead-radar/radar-cli/internal/kbo"
)

func entRow(number, name, status, startDate, postal, city string) kbo.Row {
	return kbo.Row{
		"enterprise_number": number,
		"name":              name,
		"status":            status,
		"start_date":        startDate,
		"postal_code":       postal,
		"city":              city,
	}
}

func TestResolver_MergedKeepsFileOrderAndUniqueKeys(t *testing.T) {
	r := New()
	r.AddEnterprise(entRow("0200.000.002", "Second", "AC", "2026-01-01", "9400", "Ninove"))
	r.AddEnterprise(entRow("0100.000.001", "First", "AC", "2026-01-01", "9300", "Aalst"))

	leads := r.Merged("v1")
	require.Len(t, leads, 2)
	assert.Equal(t, "0200000002", leads[0].EnterpriseNumber)
	assert.Equal(t, "0100000001", leads[1].EnterpriseNumber)

	seen := map[string]bool{}
	for _, lead := range leads {
		assert.False(t, seen[lead.EnterpriseNumber], "duplicate key %s", lead.EnterpriseNumber)
		seen[lead.EnterpriseNumber] = true
		assert.Equal(t, "v1", lead.SourceVersion)
	}
}

func TestResolver_DuplicateEnterpriseLastSeenWins(t *testing.T) {
	r := New()
	r.AddEnterprise(entRow("0100.000.001", "Old Name", "AC", "2025-01-01", "9300", "Aalst"))
	r.AddEnterprise(entRow("0100000001", "New Name", "AC", "2025-06-01", "9400", "Ninove"))

	leads := r.Merged("v1")
	require.Len(t, leads, 1)
	assert.Equal(t, "New Name", leads[0].Name)
	assert.Equal(t, "9400", leads[0].PostalCode)
	assert.Equal(t, 1, r.Stats().DuplicateEnterprises)
}

func TestResolver_EstablishmentContactTranslation(t *testing.T) {
	r := New()
	r.AddEstablishment(kbo.Row{
		"establishment_number": "2.000.000.001",
		"enterprise_number":    "0100.000.001",
		"postal_code":          "9400",
	})
	r.AddEnterprise(entRow("0100.000.001", "Kapsalon Anna", "AC", "2026-01-01", "", "Ninove"))
	r.AddContact(kbo.Row{
		"entity_number":  "2.000.000.001",
		"entity_contact": "EST",
		"contact_type":   "TEL",
		"value":          "025551234",
	})

	leads := r.Merged("v1")
	require.Len(t, leads, 1)
	assert.Equal(t, "025551234", leads[0].Phone)
	assert.Equal(t, "9400", leads[0].PostalCode) // establishment postcode wins
	assert.Zero(t, r.Stats().OrphanContacts)
}

func TestResolver_OrphanEstablishmentContactCounted(t *testing.T) {
	r := New()
	r.AddEnterprise(entRow("0100.000.001", "Kapsalon Anna", "AC", "2026-01-01", "9400", "Ninove"))
	r.AddContact(kbo.Row{
		"entity_number":  "2.999.999.999", // not in the establishment table
		"entity_contact": "EST",
		"contact_type":   "TEL",
		"value":          "025551234",
	})

	leads := r.Merged("v1")
	require.Len(t, leads, 1)
	assert.Empty(t, leads[0].Phone)
	assert.Equal(t, 1, r.Stats().OrphanContacts)
}

func TestResolver_FirstContactValueWinsPerType(t *testing.T) {
	r := New()
	r.AddEnterprise(entRow("0100.000.001", "Anna", "AC", "2026-01-01", "9400", "Ninove"))
	r.AddContact(kbo.Row{"entity_number": "0100.000.001", "entity_contact": "ENT", "contact_type": "EMAIL", "value": "first@example.be"})
	r.AddContact(kbo.Row{"entity_number": "0100.000.001", "entity_contact": "ENT", "contact_type": "EMAIL", "value": "second@example.be"})
	r.AddContact(kbo.Row{"entity_number": "0100.000.001", "entity_contact": "ENT", "contact_type": "WEB", "value": "https://anna.be"})

	leads := r.Merged("v1")
	require.Len(t, leads, 1)
	assert.Equal(t, "first@example.be", leads[0].Email)
	assert.Equal(t, "https://anna.be", leads[0].Website)
	assert.True(t, leads[0].HasWebsite())
}

func TestResolver_ActivityAttachment(t *testing.T) {
	r := New()
	r.AddEnterprise(entRow("0100.000.001", "Anna", "AC", "2026-01-01", "9400", "Ninove"))
	r.AddActivity(kbo.Row{"enterprise_number": "0100.000.001", "nace_code": "96.021"})
	r.AddActivity(kbo.Row{"enterprise_number": "0100.000.001", "nace_code": "47.110"})
	r.AddActivity(kbo.Row{"enterprise_number": "0100.000.001", "nace_code": "96.021"}) // repeat
	r.AddActivity(kbo.Row{"enterprise_number": "0999.999.999", "nace_code": "56.101"}) // orphan

	leads := r.Merged("v1")
	require.Len(t, leads, 1)
	assert.Equal(t, []string{"96.021", "47.110"}, leads[0].NACECodes)
	assert.Equal(t, 1, r.Stats().OrphanActivities)
}

func TestResolver_ActivityWithoutIdentityCounted(t *testing.T) {
	r := New()
	r.AddActivity(kbo.Row{"enterprise_number": "", "nace_code": "56.101"})
	r.AddActivity(kbo.Row{"enterprise_number": "0100.000.001", "nace_code": ""})
	assert.Equal(t, 2, r.Stats().OrphanActivities)
}

func TestResolver_BestEstablishmentPrefersPostcode(t *testing.T) {
	r := New()
	r.AddEstablishment(kbo.Row{
		"establishment_number": "2.000.000.001",
		"enterprise_number":    "0100.000.001",
		"street":               "Kerkstraat",
		"house_number":         "1",
	})
	r.AddEstablishment(kbo.Row{
		"establishment_number": "2.000.000.002",
		"enterprise_number":    "0100.000.001",
		"postal_code":          "9400",
		"city":                 "Ninove",
	})
	r.AddEnterprise(entRow("0100.000.001", "Anna", "AC", "2026-01-01", "", ""))

	leads := r.Merged("v1")
	require.Len(t, leads, 1)
	assert.Equal(t, "9400", leads[0].PostalCode)
	assert.Equal(t, "Ninove", leads[0].City)
}

func TestResolver_AddressTableEnrichment(t *testing.T) {
	r := New()
	r.AddAddress(kbo.Row{
		"establishment_number": "2.000.000.001",
		"street":               "Stationsstraat",
		"house_number":         "12",
		"postal_code":          "9400",
		"city":                 "Ninove",
	})
	r.AddEstablishment(kbo.Row{
		"establishment_number": "2.000.000.001",
		"enterprise_number":    "0100.000.001",
	})
	r.AddEnterprise(entRow("0100.000.001", "Anna", "AC", "2026-01-01", "", ""))

	leads := r.Merged("v1")
	require.Len(t, leads, 1)
	assert.Equal(t, "Stationsstraat 12", leads[0].Address)
	assert.Equal(t, "9400", leads[0].PostalCode)
}

func TestResolver_DenominationFallbackRanking(t *testing.T) {
	r := New()
	r.AddEnterprise(entRow("0100.000.001", "", "AC", "2026-01-01", "9400", "Ninove"))
	r.AddDenomination(kbo.Row{
		"entity_number":        "0100.000.001",
		"denomination":         "Nom Commercial",
		"type_of_denomination": "002",
		"language":             "fr",
	})
	r.AddDenomination(kbo.Row{
		"entity_number":        "0100.000.001",
		"denomination":         "Wettelijke Naam BV",
		"type_of_denomination": "001",
		"language":             "nl",
	})

	leads := r.Merged("v1")
	require.Len(t, leads, 1)
	assert.Equal(t, "Wettelijke Naam BV", leads[0].Name)
}

func TestResolver_EnterpriseNameBeatsDenomination(t *testing.T) {
	r := New()
	r.AddEnterprise(entRow("0100.000.001", "Inline Name", "AC", "2026-01-01", "9400", "Ninove"))
	r.AddDenomination(kbo.Row{
		"entity_number": "0100.000.001",
		"denomination":  "Ranked Name",
	})

	leads := r.Merged("v1")
	require.Len(t, leads, 1)
	assert.Equal(t, "Inline Name", leads[0].Name)
}

func TestResolver_EstablishmentWithoutEnterpriseCounted(t *testing.T) {
	r := New()
	r.AddEstablishment(kbo.Row{"establishment_number": "2.000.000.001"})
	assert.Equal(t, 1, r.Stats().OrphanEstablishments)
}

func TestMapEstablishment_ComposesAddress(t *testing.T) {
	est := MapEstablishment(kbo.Row{
		"establishment_number": "2.000.000.001",
		"enterprise_number":    "0100.000.001",
		"street":               "Dorpsplein",
		"house_number":         "3",
		"box":                  "2",
		"postal_code":          "9300",
		"city":                 "Aalst",
	})
	assert.Equal(t, "Dorpsplein 3 box 2", est.Address)
	assert.Equal(t, "9300", est.PostalCode)
	assert.Equal(t, "Aalst", est.City)
	assert.Equal(t, "2000000001", est.EstablishmentNumber)
}
