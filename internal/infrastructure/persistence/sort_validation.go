package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort direction to ASC or DESC.
// Invalid or empty input falls back to DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField checks the sort field against a whitelist and falls
// back to defaultField. Column names must never come from user input
// unchecked.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// PatientSortFields contains allowed sort fields for patient searches
var PatientSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"mrn":        true,
	"name":       true,
	"status":     true,
}

// AdmissionSortFields contains allowed sort fields for admission listings
var AdmissionSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"admitted_at": true,
	"ward":        true,
	"bed_number":  true,
	"status":      true,
}
