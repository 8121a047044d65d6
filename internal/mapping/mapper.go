// Package mapping translates table and field identifiers between the primary
// store's underscored naming and the destination platform's hyphenated one.
package mapping

import "strings"

// Mapper holds the bidirectional name tables. Built once at startup and
// injected; lookups never fail, unmapped names fall back to a permissive
// conversion because new tables appear as the schema evolves.
type Mapper struct {
	tableToDestination map[string]string
	tableToSource      map[string]string

	fieldToDestination map[string]string
	fieldToSource      map[string]string
}

// New builds the Mapper from the static name tables.
func New() *Mapper {
	m := &Mapper{
		tableToDestination: map[string]string{
			"bookings_stays":     "bookings-stays",
			"bookings_proposals": "bookings-proposals",
			"listing_photos":     "listing-photos",
			"house_rules":        "house-rules",
			"date_changes":       "date-changes",
			"user":               "user",
			"listing":            "listing",
			"proposal":           "proposal",
			"review":             "review",
		},
		fieldToDestination: map[string]string{
			"bubble_id":  "_id",
			"created_at": "Created Date",
			"updated_at": "Modified Date",
		},
	}

	m.tableToSource = invert(m.tableToDestination)
	m.fieldToSource = invert(m.fieldToDestination)

	return m
}

// DestinationTable maps a source table name to the destination's name.
// Unmapped tables pass through unchanged.
func (m *Mapper) DestinationTable(table string) string {
	if mapped, ok := m.tableToDestination[table]; ok {
		return mapped
	}

	return table
}

// SourceTable maps a destination table name back to the source convention.
// Unmapped names are converted heuristically, hyphens become underscores.
func (m *Mapper) SourceTable(table string) string {
	if mapped, ok := m.tableToSource[table]; ok {
		return mapped
	}

	return strings.ReplaceAll(table, "-", "_")
}

// DestinationField maps a source field name to the destination's name.
func (m *Mapper) DestinationField(field string) string {
	if mapped, ok := m.fieldToDestination[field]; ok {
		return mapped
	}

	return field
}

// SourceField maps a destination field name back to the source convention.
func (m *Mapper) SourceField(field string) string {
	if mapped, ok := m.fieldToSource[field]; ok {
		return mapped
	}

	return strings.ReplaceAll(field, "-", "_")
}

func invert(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[v] = k
	}

	return out
}
