// Package reflector derives the parameter surface of a compiled task type.
package reflector

import (
	"slices"
	"strings"

	"go.trai.ch/codetask/internal/core/domain"
)

// Reflect returns one parameter per public member of t, sorted by name.
// Output and Required follow the member's markers.
func Reflect(t domain.CompiledType) []domain.ParameterDescriptor {
	members := t.Members()
	params := make([]domain.ParameterDescriptor, 0, len(members))
	for _, m := range members {
		params = append(params, domain.ParameterDescriptor{
			Name:     m.Name,
			Type:     m.Type,
			Output:   m.HasMarker(domain.MarkerOutput),
			Required: m.HasMarker(domain.MarkerRequired),
		})
	}
	slices.SortStableFunc(params, func(a, b domain.ParameterDescriptor) int {
		return strings.Compare(a.Name, b.Name)
	})
	return params
}
