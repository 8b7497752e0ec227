package classify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/halverson/gearshift/internal/model"
)

// CodeRegistry is the read-only view of the labour code registry the
// detector needs. Implementations return only active entries, keyed by
// code, and must not treat missing codes as an error.
type CodeRegistry interface {
	GetCodeCategories(ctx context.Context, codes []string) (map[string]string, error)
}

// CodeInfo describes how a single item code classifies.
type CodeInfo struct {
	Category string
	Type     model.OrderType
}

// Detector determines the aggregate order type for invoice item codes.
type Detector struct {
	registry CodeRegistry
}

// NewDetector creates a detector backed by the given registry.
func NewDetector(registry CodeRegistry) *Detector {
	return &Detector{registry: registry}
}

// Detect classifies a set of item codes into an order type.
//
// Codes found in the registry contribute their normalized category tag;
// codes missing from it count as sales. One distinct tag becomes the
// order type directly, two or more become mixed. A nil or empty input
// yields unspecified, while an input that becomes empty after trimming
// blanks yields sales; both branches are deliberate and match how
// manual entry and extraction have always behaved. Malformed codes are
// filtered, never rejected.
func (d *Detector) Detect(ctx context.Context, codes []string) (model.OrderTypeResult, error) {
	if len(codes) == 0 {
		return model.OrderTypeResult{
			Type:       model.TypeUnspecified,
			Categories: []string{},
			Mapping:    emptyMapping(),
		}, nil
	}

	cleaned := make([]string, 0, len(codes))
	for _, code := range codes {
		if c := strings.TrimSpace(code); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		return model.OrderTypeResult{
			Type:       model.TypeSales,
			Categories: []string{},
			Mapping:    emptyMapping(),
		}, nil
	}

	mapped, err := d.registry.GetCodeCategories(ctx, cleaned)
	if err != nil {
		return model.OrderTypeResult{}, fmt.Errorf("failed to look up labour codes: %w", err)
	}

	categories := make(map[string]struct{})
	for _, category := range mapped {
		categories[category] = struct{}{}
	}

	var unmapped []string
	for _, code := range cleaned {
		if _, ok := mapped[code]; !ok {
			unmapped = append(unmapped, code)
		}
	}

	tags := make(map[model.OrderType]struct{})
	for category := range categories {
		tags[NormalizeCategory(category)] = struct{}{}
	}
	if len(unmapped) > 0 {
		tags[model.TypeSales] = struct{}{}
		categories[string(model.TypeSales)] = struct{}{}
	}

	result := model.OrderTypeResult{
		Type:       resolveType(tags),
		Categories: sortedCategories(categories),
		Mapping: model.MappingInfo{
			Mapped:          mapped,
			Unmapped:        unmapped,
			CategoriesFound: sortedCategories(categories),
			OrderTypesFound: sortedTags(tags),
		},
	}
	if len(tags) == 0 {
		result.Categories = []string{string(model.TypeSales)}
		result.Mapping.CategoriesFound = result.Categories
	}

	slog.Debug("order type detection",
		"codes", cleaned,
		"type", result.Type,
		"categories", result.Categories,
		"mapped", len(mapped),
		"unmapped", len(unmapped))

	return result, nil
}

// CodeCategories returns per-code classification info for previews and
// line-item tagging. Codes missing from the registry come back as
// sales; blank codes are dropped.
func (d *Detector) CodeCategories(ctx context.Context, codes []string) (map[string]CodeInfo, error) {
	cleaned := make([]string, 0, len(codes))
	for _, code := range codes {
		if c := strings.TrimSpace(code); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		return map[string]CodeInfo{}, nil
	}

	mapped, err := d.registry.GetCodeCategories(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to look up labour codes: %w", err)
	}

	result := make(map[string]CodeInfo, len(cleaned))
	for code, category := range mapped {
		result[code] = CodeInfo{Category: category, Type: NormalizeCategory(category)}
	}
	for _, code := range cleaned {
		if _, ok := result[code]; !ok {
			result[code] = CodeInfo{Category: "Sales", Type: model.TypeSales}
		}
	}

	return result, nil
}

// AddSales folds the sales tag into an existing detection result. The
// ingestion pipeline uses it when an invoice carries line items without
// any item code: those bill as sales but contribute no code to Detect.
func AddSales(r model.OrderTypeResult) model.OrderTypeResult {
	tags := make(map[model.OrderType]struct{}, len(r.Mapping.OrderTypesFound)+1)
	for _, t := range r.Mapping.OrderTypesFound {
		tags[t] = struct{}{}
	}
	tags[model.TypeSales] = struct{}{}

	categories := make(map[string]struct{}, len(r.Categories)+1)
	for _, c := range r.Categories {
		categories[c] = struct{}{}
	}
	categories[string(model.TypeSales)] = struct{}{}

	r.Type = resolveType(tags)
	r.Categories = sortedCategories(categories)
	r.Mapping.CategoriesFound = r.Categories
	r.Mapping.OrderTypesFound = sortedTags(tags)
	return r
}

// resolveType collapses the distinct tags into a final order type.
func resolveType(tags map[model.OrderType]struct{}) model.OrderType {
	switch len(tags) {
	case 0:
		// Unreachable when codes are non-empty: every code is either
		// mapped or counted as sales. Kept as the safe fallback.
		return model.TypeSales
	case 1:
		for t := range tags {
			return t
		}
	}
	return model.TypeMixed
}

func sortedCategories(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func sortedTags(set map[model.OrderType]struct{}) []model.OrderType {
	out := make([]model.OrderType, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func emptyMapping() model.MappingInfo {
	return model.MappingInfo{
		Mapped:          map[string]string{},
		Unmapped:        []string{},
		CategoriesFound: []string{},
		OrderTypesFound: []model.OrderType{},
	}
}
