package resolver

import (
	"strings"

	"github.com/lead-radar/radar-cli/internal/kbo"
	"github.com/lead-radar/radar-cli/internal/model"
)

// MapEnterprise extracts the canonical enterprise fields from a normalized
// row, trying the column variants real dumps carry.
func MapEnterprise(row kbo.Row) model.Enterprise {
	return model.Enterprise{
		EnterpriseNumber: kbo.NormalizeID(row.Get("enterprise_number", "entity_number")),
		Name:             row.Get("name", "denomination", "denomination_nl", "denomination_fr", "legal_name", "tradename"),
		Status:           row.Get("status", "enterprise_status"),
		StartDate:        row.Get("start_date", "creation_date"),
		PostalCode:       kbo.NormalizePostalCode(row.Get("postal_code")),
		City:             row.Get("city", "municipality_fr"),
		Address:          row.Get("address", "street", "street_name"),
		Website:          row.Get("website", "web", "url"),
	}
}

// MapEstablishment extracts establishment identity plus a composed address.
func MapEstablishment(row kbo.Row) model.Establishment {
	address, postal, city := buildAddress(row)
	if address == "" {
		address = row.Get("address", "full_address")
	}
	return model.Establishment{
		EnterpriseNumber:    kbo.NormalizeID(row.Get("enterprise_number")),
		EstablishmentNumber: kbo.NormalizeID(row.Get("establishment_number", "entity_number")),
		Address:             address,
		PostalCode:          postal,
		City:                city,
	}
}

// RowPostalCode extracts the normalized 4-digit postcode from any table row,
// trying the same column variants buildAddress does.
func RowPostalCode(row kbo.Row) string {
	postal := kbo.NormalizePostalCode(row.Get("postal_code"))
	if postal == "" {
		postal = kbo.NormalizePostalCode(row.Find("postcode", "postalcode", "post_code"))
	}
	return postal
}

// buildAddress composes "street housenumber [box N]" plus postcode and city
// from whichever address columns the dump provides.
func buildAddress(row kbo.Row) (address, postal, city string) {
	street := row.Get("street", "street_fr", "street_de", "street_name")
	if street == "" {
		street = row.Find("street")
	}
	houseNumber := row.Get("house_number", "number")
	if houseNumber == "" {
		houseNumber = row.Find("house")
	}
	box := row.Get("box", "bus", "box_number")

	postal = kbo.NormalizePostalCode(row.Get("postal_code"))
	if postal == "" {
		postal = kbo.NormalizePostalCode(row.Find("postcode", "postalcode", "post_code"))
	}

	city = row.Get("city", "municipality_fr", "municipality_de", "commune")
	if city == "" {
		city = row.Find("municipality", "city")
	}

	if street == "" {
		if legacy := row.Get("address", "full_address"); legacy != "" {
			return legacy, postal, city
		}
	}

	parts := make([]string, 0, 2)
	if street != "" {
		parts = append(parts, street)
	}
	if houseNumber != "" {
		parts = append(parts, houseNumber)
	}
	address = strings.Join(parts, " ")
	if box != "" {
		if address != "" {
			address += " box " + box
		} else {
			address = box
		}
	}

	return address, postal, city
}
