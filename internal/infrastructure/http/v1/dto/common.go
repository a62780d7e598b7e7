// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strings"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/types"
)

// Money renders m with 2 fraction digits, rounded half away from zero
// like types.RoundDisplay.
func Money(m types.Money) string {
	return types.FixedString(m)
}

// OptionalMoney renders a nullable amount.
func OptionalMoney(m *types.Money) *string {
	if m == nil {
		return nil
	}
	s := Money(*m)
	return &s
}

// ParseMoney parses a request amount such as "12.50" or "12,50".
func ParseMoney(field, s string) (types.Money, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	m, err := types.NewMoneyFromString(s)
	if err != nil {
		return types.Zero(), apperror.NewValidation("invalid amount").
			WithDetail("field", field).
			WithDetail("value", s)
	}
	return m, nil
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
}
