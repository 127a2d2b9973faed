// Package model defines the records flowing through the lead pipeline.
package model

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
)

// Enterprise is one row of the enterprise table after column normalization.
// Immutable once read; EnterpriseNumber is the canonical digit-only key.
type Enterprise struct {
	EnterpriseNumber string
	Name             string
	Status           string
	StartDate        string
	Address          string
	PostalCode       string
	City             string
	Website          string
}

// Establishment is one row of the establishment table. Establishments are
// never emitted on their own; they only resolve contact ownership and supply
// address data.
type Establishment struct {
	EstablishmentNumber string
	EnterpriseNumber    string
	Address             string
	PostalCode          string
	City                string
}

// Activity links an enterprise to a NACE activity code.
type Activity struct {
	EnterpriseNumber string
	NACECode         string
}

// EntityContact values distinguish the owner of a contact row.
const (
	EntityEnterprise    = "ENT"
	EntityEstablishment = "EST"
)

// Contact types carried by the contact table.
const (
	ContactPhone   = "TEL"
	ContactEmail   = "EMAIL"
	ContactWebsite = "WEB"
)

// Contact is one row of the contact table. When EntityContact is EST the
// EntityNumber is an establishment number and must be translated to an
// enterprise number before attachment.
type Contact struct {
	EntityNumber  string
	EntityContact string
	ContactType   string
	Value         string
}

// Lead is the merged per-enterprise record the pipeline produces: enterprise
// identity plus attached activities, contacts, sector bucket and score.
type Lead struct {
	EnterpriseNumber string
	Name             string
	Status           string
	StartDate        string
	Address          string
	PostalCode       string
	City             string
	NACECodes        []string
	SectorBucket     string
	Phone            string
	Email            string
	Website          string
	ScoreTotal       int
	ScoreReasons     string
	SourceVersion    string
}

// OutputColumns is the fixed column order of the exported lead list.
var OutputColumns = []string{
	"enterprise_number",
	"name",
	"status",
	"start_date",
	"address",
	"postal_code",
	"city",
	"nace_codes",
	"sector_bucket",
	"has_website",
	"phone",
	"email",
	"website",
	"score_total",
	"score_reasons",
	"source_files_version",
}

// HasWebsite reports whether any website value was attached.
func (l *Lead) HasWebsite() bool {
	return strings.TrimSpace(l.Website) != ""
}

// Row renders the lead in OutputColumns order.
func (l *Lead) Row() []string {
	hasWebsite := "no"
	if l.HasWebsite() {
		hasWebsite = "yes"
	}
	return []string{
		l.EnterpriseNumber,
		l.Name,
		l.Status,
		l.StartDate,
		l.Address,
		l.PostalCode,
		l.City,
		strings.Join(l.NACECodes, ","),
		l.SectorBucket,
		hasWebsite,
		l.Phone,
		l.Email,
		l.Website,
		strconv.Itoa(l.ScoreTotal),
		l.ScoreReasons,
		l.SourceVersion,
	}
}

// DedupeKey is a stable content key over normalized name and address. Two
// leads with the same key are considered the same business regardless of
// their enterprise numbers.
func (l *Lead) DedupeKey() string {
	name := foldForKey(l.Name)
	address := foldForKey(l.Address)
	if name == "" && address == "" {
		// No content to match on; key by identity so data-poor rows never
		// collapse into each other.
		sum := sha1.Sum([]byte("ent\x00" + l.EnterpriseNumber))
		return hex.EncodeToString(sum[:])
	}
	sum := sha1.Sum([]byte(name + "\x00" + address))
	return hex.EncodeToString(sum[:])
}

// foldForKey lowercases and collapses everything that is not a letter or
// digit, so formatting differences do not defeat deduplication.
func foldForKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSep := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSep = false
		default:
			if !lastSep {
				b.WriteByte(' ')
				lastSep = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
