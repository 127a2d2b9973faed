// Package resolver joins establishment, activity, contact, address and
// denomination rows onto their owning enterprises, producing one merged
// record per enterprise identity. Both execution modes feed the same
// Resolver, so the join semantics cannot drift between them.
package resolver

import (
	"strings"

	"go.uber.org/zap"

	"github.com/lead-radar/radar-cli/internal/kbo"
	"github.com/lead-radar/radar-cli/internal/model"
)

// Stats aggregates per-table drop counters. Recoverable conditions are
// counted here, never raised as errors.
type Stats struct {
	EnterprisesRead      int
	EstablishmentsRead   int
	ActivitiesRead       int
	ContactsRead         int
	AddressesRead        int
	DenominationsRead    int
	MalformedRows        int
	OrphanEstablishments int // establishment rows without a usable enterprise number
	OrphanActivities     int // activity rows whose enterprise never appeared
	OrphanContacts       int // contact rows that resolve to no known enterprise
	DuplicateEnterprises int // enterprise rows overwriting an earlier row with the same number
}

type contactSet struct {
	phone   string
	email   string
	website string
}

type rankedName struct {
	typeRank int
	langRank int
	index    int
	name     string
}

func (r rankedName) better(other rankedName) bool {
	if r.typeRank != other.typeRank {
		return r.typeRank < other.typeRank
	}
	if r.langRank != other.langRank {
		return r.langRank < other.langRank
	}
	return r.index < other.index
}

// Resolver accumulates table rows and merges them into per-enterprise leads.
// Feed order matters only in two places: addresses before establishments
// (address enrichment) and establishments before contacts (EST contact
// translation); the pipeline enforces both.
type Resolver struct {
	estToEnt     map[string]string
	addrByEst    map[string]model.Establishment
	bestEstByEnt map[string]model.Establishment
	entByNum     map[string]model.Enterprise
	order        []string
	nacesByEnt   map[string][]string
	naceSeen     map[string]map[string]bool
	contactsByEnt map[string]*contactSet
	contactRows  map[string]int
	denomByEnt   map[string]rankedName
	denomIndex   int

	stats Stats
}

// New creates an empty Resolver.
func New() *Resolver {
	return &Resolver{
		estToEnt:      make(map[string]string),
		addrByEst:     make(map[string]model.Establishment),
		bestEstByEnt:  make(map[string]model.Establishment),
		entByNum:      make(map[string]model.Enterprise),
		nacesByEnt:    make(map[string][]string),
		naceSeen:      make(map[string]map[string]bool),
		contactsByEnt: make(map[string]*contactSet),
		contactRows:   make(map[string]int),
		denomByEnt:    make(map[string]rankedName),
	}
}

// Stats returns the accumulated drop counters.
func (r *Resolver) Stats() *Stats {
	return &r.stats
}

// CountMalformed records skipped rows reported by the reader.
func (r *Resolver) CountMalformed(n int) {
	r.stats.MalformedRows += n
}

// AddAddress indexes an address-table row by establishment number for later
// establishment enrichment.
func (r *Resolver) AddAddress(row kbo.Row) {
	r.stats.AddressesRead++

	estNum := kbo.NormalizeID(row.Get("establishment_number", "entity_number"))
	if estNum == "" {
		estNum = kbo.NormalizeID(row.Find("establishment"))
	}
	if estNum == "" {
		return
	}

	address, postal, city := buildAddress(row)
	if address == "" && postal == "" {
		return
	}

	r.addrByEst[estNum] = model.Establishment{
		EstablishmentNumber: estNum,
		Address:             address,
		PostalCode:          postal,
		City:                city,
	}
}

// AddEstablishment registers an establishment row: it extends the
// establishment-to-enterprise lookup and competes for the enterprise's best
// establishment slot (postcode presence beats address presence beats file
// order).
func (r *Resolver) AddEstablishment(row kbo.Row) {
	r.stats.EstablishmentsRead++
	est := MapEstablishment(row)

	if est.EstablishmentNumber != "" {
		if addr, ok := r.addrByEst[est.EstablishmentNumber]; ok {
			if est.Address == "" {
				est.Address = addr.Address
			}
			if est.PostalCode == "" {
				est.PostalCode = addr.PostalCode
			}
			if est.City == "" {
				est.City = addr.City
			}
		}
	}

	if est.EnterpriseNumber == "" {
		r.stats.OrphanEstablishments++
		return
	}

	if est.EstablishmentNumber != "" {
		r.estToEnt[est.EstablishmentNumber] = est.EnterpriseNumber
	}

	existing, ok := r.bestEstByEnt[est.EnterpriseNumber]
	if !ok {
		r.bestEstByEnt[est.EnterpriseNumber] = est
		return
	}

	existingPostcode := existing.PostalCode != ""
	candidatePostcode := est.PostalCode != ""
	switch {
	case candidatePostcode && !existingPostcode:
		r.bestEstByEnt[est.EnterpriseNumber] = est
	case candidatePostcode == existingPostcode:
		if est.Address != "" && existing.Address == "" {
			r.bestEstByEnt[est.EnterpriseNumber] = est
		}
	}
}

// AddEnterprise seeds (or overwrites) the accumulator slot for an enterprise
// number. Later rows win on duplicates, mirroring file order.
func (r *Resolver) AddEnterprise(row kbo.Row) {
	r.stats.EnterprisesRead++
	ent := MapEnterprise(row)
	if ent.EnterpriseNumber == "" {
		return
	}

	if _, seen := r.entByNum[ent.EnterpriseNumber]; seen {
		r.stats.DuplicateEnterprises++
	} else {
		r.order = append(r.order, ent.EnterpriseNumber)
	}
	r.entByNum[ent.EnterpriseNumber] = ent
}

// AddActivity appends the row's NACE code to the owning enterprise's code
// set, keeping first-seen order and dropping repeats.
func (r *Resolver) AddActivity(row kbo.Row) {
	r.stats.ActivitiesRead++

	entNum := kbo.NormalizeID(row.Get("enterprise_number", "entity_number"))
	code := row.Get("nace_code", "nace", "activity_code")
	if entNum == "" || code == "" {
		r.stats.OrphanActivities++
		return
	}

	seen := r.naceSeen[entNum]
	if seen == nil {
		seen = make(map[string]bool)
		r.naceSeen[entNum] = seen
	}
	if seen[code] {
		return
	}
	seen[code] = true
	r.nacesByEnt[entNum] = append(r.nacesByEnt[entNum], code)
}

// AddContact attaches a contact row. EST rows are translated through the
// establishment lookup first; rows that resolve to no enterprise are dropped
// and counted. The first value per contact type wins.
func (r *Resolver) AddContact(row kbo.Row) {
	r.stats.ContactsRead++

	entityNum := kbo.NormalizeID(row.Get("entity_number", "enterprise_number", "establishment_number"))
	entityContact := strings.ToUpper(row.Get("entity_contact"))
	contactType := strings.ToUpper(row.Get("contact_type"))

	var entNum string
	if isEstablishmentContact(entityContact) {
		entNum = r.estToEnt[entityNum]
	} else {
		entNum = entityNum
	}
	if entNum == "" {
		r.stats.OrphanContacts++
		return
	}

	set := r.contactsByEnt[entNum]
	if set == nil {
		set = &contactSet{}
		r.contactsByEnt[entNum] = set
	}
	r.contactRows[entNum]++

	switch contactType {
	case model.ContactPhone:
		if value := row.Get("value"); value != "" && set.phone == "" {
			set.phone = value
		}
	case model.ContactEmail:
		if value := row.Get("value"); value != "" && set.email == "" {
			set.email = value
		}
	case model.ContactWebsite:
		if value := row.Get("value"); value != "" && set.website == "" {
			set.website = value
		}
	case "FAX":
		// Known type, nothing to attach.
	default:
		// Some dumps carry dedicated phone/email/website columns instead of
		// a (type, value) pair.
		if value := row.Get("phone"); value != "" && set.phone == "" {
			set.phone = value
		}
		if value := row.Get("email"); value != "" && set.email == "" {
			set.email = value
		}
		if value := row.Get("website", "web"); value != "" && set.website == "" {
			set.website = value
		}
	}
}

func isEstablishmentContact(entityContact string) bool {
	switch entityContact {
	case model.EntityEstablishment, "ESTABLISHMENT", "VESTIGING":
		return true
	}
	return false
}

// Denomination ranking: legal names (type 001) beat commercial names, Dutch
// beats French beats English beats German, file order breaks ties.
var (
	denomTypeRank = map[string]int{"001": 0, "1": 0, "002": 1, "2": 1}
	denomLangRank = map[string]int{"nl": 0, "n": 0, "fr": 1, "f": 1, "en": 2, "e": 2, "de": 3, "d": 3}
)

const (
	defaultTypeRank = 2
	defaultLangRank = 4
)

// AddDenomination records a candidate legal name for an enterprise.
func (r *Resolver) AddDenomination(row kbo.Row) {
	r.stats.DenominationsRead++
	index := r.denomIndex
	r.denomIndex++

	entNum := kbo.NormalizeID(row.Get("entity_number", "enterprise_number"))
	name := row.Get("denomination", "name")
	if entNum == "" || name == "" {
		return
	}

	typeRank, ok := denomTypeRank[row.Get("type_of_denomination")]
	if !ok {
		typeRank = defaultTypeRank
	}
	langRank, ok := denomLangRank[strings.ToLower(row.Get("language", "language_code", "lang"))]
	if !ok {
		langRank = defaultLangRank
	}

	candidate := rankedName{typeRank: typeRank, langRank: langRank, index: index, name: name}
	if previous, seen := r.denomByEnt[entNum]; !seen || candidate.better(previous) {
		r.denomByEnt[entNum] = candidate
	}
}

// HasEnterprise reports whether an enterprise number is in the accumulator.
func (r *Resolver) HasEnterprise(entNum string) bool {
	_, ok := r.entByNum[entNum]
	return ok
}

// EnterpriseFor translates an establishment number to its enterprise number.
func (r *Resolver) EnterpriseFor(estNum string) (string, bool) {
	ent, ok := r.estToEnt[estNum]
	return ent, ok
}

// Merged assembles one lead per enterprise in first-seen file order. The
// establishment's address wins over the enterprise's; the enterprise name
// falls back to the best-ranked denomination; contact websites win over a
// website column on the enterprise row. Orphaned activity and contact rows
// are tallied here, once the full identity space is known.
func (r *Resolver) Merged(sourceVersion string) []model.Lead {
	for entNum, codes := range r.nacesByEnt {
		if _, ok := r.entByNum[entNum]; !ok {
			r.stats.OrphanActivities += len(codes)
		}
	}
	for entNum, rows := range r.contactRows {
		if _, ok := r.entByNum[entNum]; !ok {
			r.stats.OrphanContacts += rows
		}
	}

	leads := make([]model.Lead, 0, len(r.order))
	for _, entNum := range r.order {
		ent := r.entByNum[entNum]
		est := r.bestEstByEnt[entNum]

		name := ent.Name
		if name == "" {
			name = r.denomByEnt[entNum].name
		}

		postal := est.PostalCode
		if postal == "" {
			postal = ent.PostalCode
		}
		address := est.Address
		if address == "" {
			address = ent.Address
		}
		city := est.City
		if city == "" {
			city = ent.City
		}

		var phone, email, website string
		if set := r.contactsByEnt[entNum]; set != nil {
			phone, email, website = set.phone, set.email, set.website
		}
		if website == "" {
			website = ent.Website
		}

		leads = append(leads, model.Lead{
			EnterpriseNumber: entNum,
			Name:             name,
			Status:           ent.Status,
			StartDate:        ent.StartDate,
			Address:          address,
			PostalCode:       postal,
			City:             city,
			NACECodes:        r.nacesByEnt[entNum],
			Phone:            phone,
			Email:            email,
			Website:          website,
			SourceVersion:    sourceVersion,
		})
	}

	zap.L().Debug("resolver: merged leads",
		zap.Int("enterprises", len(leads)),
		zap.Int("orphan_activities", r.stats.OrphanActivities),
		zap.Int("orphan_contacts", r.stats.OrphanContacts),
	)

	return leads
}
