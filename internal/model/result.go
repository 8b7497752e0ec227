package model

import "strings"

// MappingInfo records how each code contributed to a detection result.
type MappingInfo struct {
	// Mapped is code -> registry category for codes found in the registry.
	Mapped map[string]string
	// Unmapped lists codes absent from the registry, treated as sales.
	Unmapped []string
	// CategoriesFound are the distinct contributing category strings,
	// sorted, including the literal "sales" for unmapped codes.
	CategoriesFound []string
	// OrderTypesFound are the distinct normalized tags, sorted.
	OrderTypesFound []OrderType
}

// OrderTypeResult is the outcome of detecting the aggregate order type
// for a set of invoice item codes.
type OrderTypeResult struct {
	Mapping    MappingInfo
	Type       OrderType
	Categories []string
}

// Display renders the result for status lines: a single formatted type
// name, or "Sales and Labour" style for mixed results.
func (r OrderTypeResult) Display() string {
	if r.Type == TypeMixed && len(r.Mapping.OrderTypesFound) > 0 {
		names := make([]string, len(r.Mapping.OrderTypesFound))
		for i, t := range r.Mapping.OrderTypesFound {
			names[i] = t.Display()
		}
		return strings.Join(names, " and ")
	}
	return r.Type.Display()
}
