package kbo

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrMissingInput marks a required registry table that could not be found.
// It is fatal and raised before any row is processed.
var ErrMissingInput = eris.New("required input table missing")

// Dataset identifies a logical registry table.
type Dataset string

// The tables a registry dump may contain.
const (
	DatasetEnterprise    Dataset = "enterprise"
	DatasetEstablishment Dataset = "establishment"
	DatasetActivity      Dataset = "activity"
	DatasetContact       Dataset = "contact"
	DatasetAddress       Dataset = "address"
	DatasetDenomination  Dataset = "denomination"
)

// fileCandidates lists accepted filenames per dataset, plural first since
// official dumps use plurals.
var fileCandidates = map[Dataset][]string{
	DatasetEnterprise:    {"enterprises.csv", "enterprise.csv"},
	DatasetEstablishment: {"establishments.csv", "establishment.csv"},
	DatasetActivity:      {"activities.csv", "activity.csv"},
	DatasetContact:       {"contacts.csv", "contact.csv"},
	DatasetAddress:       {"addresses.csv", "address.csv"},
	DatasetDenomination:  {"denominations.csv", "denomination.csv"},
}

// Sources maps each located dataset to its file path. Optional datasets that
// were not found are absent from the map.
type Sources struct {
	Dir     string
	Version string // directory basename, stamped into every output row
	Files   map[Dataset]string
}

// Path returns the file path for a dataset and whether it was located.
func (s *Sources) Path(d Dataset) (string, bool) {
	p, ok := s.Files[d]
	return p, ok
}

// Locate resolves the registry tables under dir. Enterprise and establishment
// tables are required; activity is required unless lite is set; contact,
// address and denomination are always optional. When dir itself holds no CSV
// files but exactly one subdirectory does, that subdirectory is used — dumps
// extracted from ZIP archives often nest their content one level down.
func Locate(dir string, lite bool) (*Sources, error) {
	resolved, err := resolveDir(dir)
	if err != nil {
		return nil, err
	}

	sources := &Sources{
		Dir:     resolved,
		Version: filepath.Base(resolved),
		Files:   make(map[Dataset]string),
	}

	for dataset, candidates := range fileCandidates {
		if path, ok := findFile(resolved, candidates); ok {
			sources.Files[dataset] = path
		}
	}

	required := []Dataset{DatasetEnterprise, DatasetEstablishment}
	if !lite {
		required = append(required, DatasetActivity)
	}
	for _, dataset := range required {
		if _, ok := sources.Files[dataset]; !ok {
			return nil, eris.Wrapf(ErrMissingInput,
				"kbo: no %s table in %s (expected one of: %s; found: %s)",
				dataset, resolved,
				strings.Join(fileCandidates[dataset], ", "),
				strings.Join(listEntries(resolved), ", "))
		}
	}

	zap.L().Debug("kbo: located input tables",
		zap.String("dir", resolved),
		zap.Int("tables", len(sources.Files)),
	)

	return sources, nil
}

// resolveDir returns dir, or its single CSV-bearing subdirectory.
func resolveDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrapf(ErrMissingInput, "kbo: read input directory %s", dir)
	}

	var subdirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, filepath.Join(dir, entry.Name()))
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			return dir, nil
		}
	}

	if len(subdirs) == 1 {
		subEntries, err := os.ReadDir(subdirs[0])
		if err == nil {
			for _, entry := range subEntries {
				if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
					zap.L().Info("kbo: using CSV subdirectory", zap.String("dir", subdirs[0]))
					return subdirs[0], nil
				}
			}
		}
	}

	return dir, nil
}

// findFile matches candidates case-insensitively, tolerating the doubled
// ".csv.csv" extension some exports produce.
func findFile(dir string, candidates []string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	byLower := make(map[string]string, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			byLower[strings.ToLower(entry.Name())] = entry.Name()
		}
	}

	for _, candidate := range candidates {
		if name, ok := byLower[candidate]; ok {
			return filepath.Join(dir, name), true
		}
		if name, ok := byLower[candidate+".csv"]; ok {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}

func listEntries(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}
