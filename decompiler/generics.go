package decompiler

import (
	"strconv"
	"strings"

	"github.com/chazu/movedc/pkg/unit"
)

var genericPrefixes = []string{
	"T", "G", "V", "A", "B", "C", "D", "F", "H", "J", "K", "L", "M", "N", "P", "Q", "R", "S",
	"W", "X", "Y", "Z",
}

// fallbackPrefix is used when every single-letter prefix collides with an
// identifier of the unit.
const fallbackPrefix = "TYPE"

// GenericPrefix picks the type parameter prefix for u: the first entry of
// the prefix table that is not an identifier in the unit.
func GenericPrefix(u unit.Access) string {
	taken := make(map[string]bool, len(u.Identifiers()))
	for _, id := range u.Identifiers() {
		taken[id] = true
	}
	for _, p := range genericPrefixes {
		if !taken[p] {
			return p
		}
	}
	return fallbackPrefix
}

// Generic is a named type parameter with its ability constraints.
type Generic struct {
	Name      string
	Abilities unit.AbilitySet
}

// NewGenerics names a type parameter list: T, T1, T2, ...
func NewGenerics(prefix string, params []unit.AbilitySet) []Generic {
	if len(params) == 0 {
		return nil
	}
	out := make([]Generic, len(params))
	for i, ab := range params {
		name := prefix
		if i != 0 {
			name += strconv.Itoa(i)
		}
		out[i] = Generic{Name: name, Abilities: ab}
	}
	return out
}

// Decl renders the parameter as it appears in a declaration, e.g.
// "T: copy + drop".
func (g Generic) Decl() string {
	names := g.Abilities.Names()
	if len(names) == 0 {
		return g.Name
	}
	return g.Name + ": " + strings.Join(names, " + ")
}
