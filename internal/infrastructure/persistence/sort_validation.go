package persistence

import (
	"strings"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/docstore"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField maps an API sort field to its document field using a whitelist.
// Returns the defaultField if the input is empty or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]string, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if field, ok := allowedFields[trimmed]; ok {
		return field
	}
	return defaultField
}

// sortOrder builds the document ordering for a list filter.
// The default field sorts ascending unless the filter asks otherwise.
func sortOrder(filter shared.Filter, allowed map[string]string, defaultField string) ([]docstore.Order, error) {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	if field == "" {
		return nil, nil
	}
	desc := ValidateSortOrder(filter.OrderDir) == "DESC"
	if strings.TrimSpace(filter.OrderDir) == "" && field == defaultField {
		desc = false
	}
	return []docstore.Order{{Field: field, Desc: desc}}, nil
}

// page applies Page/PageSize to an in-memory result
func page[T any](items []T, filter shared.Filter) []T {
	if filter.PageSize <= 0 {
		return items
	}
	start := filter.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + filter.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
