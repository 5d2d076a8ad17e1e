package riskassess

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Normalize validates a raw request and fills defaults. The result is a pure
// function of the input; nothing is mutated and no I/O happens here.
func Normalize(req AssessmentRequest) (NormalizedRequest, error) {
	name := strings.TrimSpace(req.EntityName)
	if name == "" {
		return NormalizedRequest{}, &ValidationError{Field: "entity_name", Message: "must not be empty"}
	}
	if len(name) > MaxEntityNameLen {
		return NormalizedRequest{}, &ValidationError{Field: "entity_name", Message: fmt.Sprintf("exceeds %d characters", MaxEntityNameLen)}
	}

	entityType, err := normalizeEntityType(req.EntityType)
	if err != nil {
		return NormalizedRequest{}, err
	}
	urgency, err := normalizeUrgency(req.UrgencyLevel)
	if err != nil {
		return NormalizedRequest{}, err
	}
	scope, err := normalizeScope(req.AssessmentScope)
	if err != nil {
		return NormalizedRequest{}, err
	}

	// Revenue cannot be negative; margins, leverage, and operating cash flow
	// legitimately can.
	fin := FinancialSnapshot{}
	if req.FinancialData != nil {
		fin = *req.FinancialData
		if fin.Revenue != nil && *fin.Revenue < 0 {
			return NormalizedRequest{}, &ValidationError{Field: "financial_data.revenue", Message: "must be >= 0"}
		}
	}

	regions := make([]string, 0, len(req.GeographicExposure))
	seenRegion := map[string]struct{}{}
	for _, r := range req.GeographicExposure {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		key := strings.ToLower(r)
		if _, ok := seenRegion[key]; ok {
			continue
		}
		seenRegion[key] = struct{}{}
		regions = append(regions, r)
	}

	context := strings.TrimSpace(req.AdditionalContext)
	if len(context) > MaxContextChars {
		cut := MaxContextChars
		for cut > 0 && !utf8.RuneStart(context[cut]) {
			cut--
		}
		context = context[:cut]
	}

	return NormalizedRequest{
		EntityName:         name,
		EntityType:         entityType,
		Industry:           strings.ToLower(strings.TrimSpace(req.Industry)),
		GeographicExposure: regions,
		Financial:          fin,
		AdditionalContext:  context,
		Scope:              scope,
		RequestedBy:        strings.TrimSpace(req.RequestedBy),
		Urgency:            urgency,
	}, nil
}

func normalizeEntityType(raw string) (EntityType, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return EntityCompany, nil
	}
	t := EntityType(raw)
	switch t {
	case EntityCompany, EntityInvestment, EntityProject, EntityPartnership, EntityIndividual:
		return t, nil
	default:
		return "", &ValidationError{Field: "entity_type", Message: fmt.Sprintf("unknown value %q", raw)}
	}
}

func normalizeUrgency(raw string) (UrgencyLevel, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return UrgencyNormal, nil
	}
	u := UrgencyLevel(raw)
	switch u {
	case UrgencyLow, UrgencyNormal, UrgencyHigh:
		return u, nil
	default:
		return "", &ValidationError{Field: "urgency_level", Message: fmt.Sprintf("unknown value %q", raw)}
	}
}

// normalizeScope deduplicates while preserving the caller's order. A nil
// scope defaults to all four categories; an explicitly empty scope is a
// validation error because the caller asked for an assessment of nothing.
func normalizeScope(raw []string) ([]Category, error) {
	if raw == nil {
		out := make([]Category, len(AllCategories))
		copy(out, AllCategories)
		return out, nil
	}
	seen := map[Category]struct{}{}
	out := make([]Category, 0, len(raw))
	for _, s := range raw {
		c := Category(strings.ToLower(strings.TrimSpace(s)))
		if c == "" {
			continue
		}
		if !validCategory(c) {
			return nil, &ValidationError{Field: "assessment_scope", Message: fmt.Sprintf("unknown category %q", s)}
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, &ValidationError{Field: "assessment_scope", Message: "must contain at least one category"}
	}
	return out, nil
}
