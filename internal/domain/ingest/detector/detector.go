// Package detector infers which column of a loaded table plays each of the
// three transaction roles: date, amount, description. Bank exports disagree
// wildly on header names, so name matching alone is not trusted: date and
// amount candidates must also pass a content check on sampled values.
package detector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/FACorreiaa/trackr/internal/domain/ingest/normalizer"
	"github.com/FACorreiaa/trackr/internal/domain/ingest/tabular"
)

// Role is the semantic purpose assigned to a source column.
type Role string

const (
	RoleDate        Role = "date"
	RoleAmount      Role = "amount"
	RoleDescription Role = "description"
)

// Mapping assigns original column names to roles. A valid mapping has
// exactly three entries, one per role.
type Mapping map[string]Role

// ColumnFor returns the original column name mapped to the given role.
func (m Mapping) ColumnFor(role Role) (string, bool) {
	for col, r := range m {
		if r == role {
			return col, true
		}
	}
	return "", false
}

// Overrides carries manual column names that bypass detection for a role.
// An override only applies when the named column exists in the table.
type Overrides struct {
	DateColumn        string
	AmountColumn      string
	DescriptionColumn string
}

// DetectionError reports that no column mapping satisfying all three roles
// could be found. It carries the available column names so the caller can
// prompt for manual overrides.
type DetectionError struct {
	Columns []string
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("could not detect date/amount/description columns; available columns: %s",
		strings.Join(e.Columns, ", "))
}

// IsDetectionError reports whether err is a DetectionError.
func IsDetectionError(err error) bool {
	var de *DetectionError
	return errors.As(err, &de)
}

// Known header aliases per role. A column name matches a role when its
// lower-cased, trimmed form contains any alias as a substring.
var dateAliases = []string{
	"date", "trans_date", "transaction_date", "posted_date",
	"value_date", "timestamp", "datetime",
}

var amountAliases = []string{
	"amount", "value", "debit", "credit", "transaction_amount",
	"sum", "total", "price", "amt",
}

var descriptionAliases = []string{
	"description", "memo", "details", "narrative", "particulars",
	"transaction_details", "remarks", "merchant", "narr",
}

const sampleSize = 10

// Detect resolves the column mapping for a loaded table. Roles are resolved
// in a fixed order (date, amount, description); a column claimed for an
// earlier role is not reconsidered for a later one. Detection succeeds only
// when all three roles land on distinct columns.
func Detect(ds *tabular.Dataset, overrides Overrides) (Mapping, error) {
	mapping := Mapping{}
	claimed := map[string]bool{}

	claim := func(col string, role Role) {
		mapping[col] = role
		claimed[col] = true
	}

	if col, ok := resolveRole(ds, claimed, overrides.DateColumn, dateAliases, dateSampleValid); ok {
		claim(col, RoleDate)
	}
	if col, ok := resolveRole(ds, claimed, overrides.AmountColumn, amountAliases, amountSampleValid); ok {
		claim(col, RoleAmount)
	}
	if col, ok := resolveDescription(ds, claimed, overrides.DescriptionColumn); ok {
		claim(col, RoleDescription)
	}

	if len(mapping) != 3 {
		return nil, &DetectionError{Columns: append([]string(nil), ds.Columns...)}
	}
	return mapping, nil
}

// resolveRole finds the column for a validated role: manual override first,
// then alias name match confirmed by the content validator, then a scan of
// every unclaimed column by content alone.
func resolveRole(ds *tabular.Dataset, claimed map[string]bool, override string, aliases []string, valid func([]string) bool) (string, bool) {
	if override != "" {
		if _, ok := ds.Column(override); ok && !claimed[override] {
			return override, true
		}
	}

	for _, col := range ds.Columns {
		if claimed[col] {
			continue
		}
		if !nameMatches(col, aliases) {
			continue
		}
		values, _ := ds.Column(col)
		if valid(sample(values)) {
			return col, true
		}
	}

	// No validated name match: fall back to content scanning every column.
	for _, col := range ds.Columns {
		if claimed[col] {
			continue
		}
		values, _ := ds.Column(col)
		if valid(sample(values)) {
			return col, true
		}
	}

	return "", false
}

// resolveDescription has no content validator; the fallback is the first
// text-typed column not already claimed.
func resolveDescription(ds *tabular.Dataset, claimed map[string]bool, override string) (string, bool) {
	if override != "" {
		if _, ok := ds.Column(override); ok && !claimed[override] {
			return override, true
		}
	}

	for _, col := range ds.Columns {
		if claimed[col] {
			continue
		}
		if nameMatches(col, descriptionAliases) {
			return col, true
		}
	}

	for _, col := range ds.Columns {
		if claimed[col] {
			continue
		}
		values, _ := ds.Column(col)
		if !tabular.NumericColumn(values) {
			return col, true
		}
	}

	return "", false
}

func nameMatches(col string, aliases []string) bool {
	norm := strings.ToLower(strings.TrimSpace(col))
	for _, alias := range aliases {
		if strings.Contains(norm, alias) {
			return true
		}
	}
	return false
}

// sample returns up to sampleSize non-empty values from the column.
func sample(values []string) []string {
	out := make([]string, 0, sampleSize)
	for _, v := range values {
		if v == "" {
			continue
		}
		out = append(out, v)
		if len(out) == sampleSize {
			break
		}
	}
	return out
}

// dateSampleValid accepts the sample when at least half parses as a
// calendar date under either the month-first or day-first convention.
func dateSampleValid(sample []string) bool {
	if len(sample) == 0 {
		return false
	}
	need := len(sample) / 2
	if need < 1 {
		need = 1
	}

	if countParsed(sample, false) >= need {
		return true
	}
	return countParsed(sample, true) >= need
}

func countParsed(sample []string, dayFirst bool) int {
	count := 0
	for _, v := range sample {
		if normalizer.ParsesAsDate(v, dayFirst) {
			count++
		}
	}
	return count
}

// amountSampleValid accepts the sample when at least half survives amount
// normalization.
func amountSampleValid(sample []string) bool {
	if len(sample) == 0 {
		return false
	}
	need := len(sample) / 2
	if need < 1 {
		need = 1
	}

	parsed := 0
	for _, v := range sample {
		if _, err := normalizer.ParseAmount(v); err == nil {
			parsed++
		}
	}
	return parsed >= need
}
