package decompiler

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/chazu/movedc/pkg/unit"
)

// Import is one module the unit refers to besides itself.
type Import struct {
	Address unit.Address
	Module  string
	// Alias is set when another import already uses Module.
	Alias string
}

// Name returns the identifier code uses to refer to the import.
func (i Import) Name() string {
	if i.Alias != "" {
		return i.Alias
	}
	return i.Module
}

func (i Import) String() string {
	s := fmt.Sprintf("%s::%s", i.Address, i.Module)
	if i.Alias != "" {
		s += " as " + i.Alias
	}
	return s
}

// Imports maps module handles to the names code refers to them by.
type Imports struct {
	list     []Import
	byHandle map[unit.ModuleHandle]string
}

// NewImports builds the import table of u. Imports are ordered by module
// name, then address; the second and later modules sharing a name are
// aliased Name_1, Name_2, ...
func NewImports(u unit.Access) *Imports {
	self, hasSelf := u.SelfModuleHandle()

	type entry struct {
		handle  unit.ModuleHandle
		address unit.Address
		name    string
	}
	seen := make(map[unit.ModuleHandle]bool)
	var entries []entry
	for _, h := range u.ModuleHandles() {
		if (hasSelf && h == self) || seen[h] {
			continue
		}
		seen[h] = true
		addr, _ := u.Address(h.Address)
		name, ok := u.Identifier(h.Name)
		if !ok {
			name = "?"
		}
		entries = append(entries, entry{h, addr, name})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].name != entries[j].name {
			return entries[i].name < entries[j].name
		}
		return bytes.Compare(entries[i].address[:], entries[j].address[:]) < 0
	})

	im := &Imports{byHandle: make(map[unit.ModuleHandle]string)}
	used := make(map[string]int)
	for _, e := range entries {
		imp := Import{Address: e.address, Module: e.name}
		if n := used[e.name]; n > 0 {
			imp.Alias = fmt.Sprintf("%s_%d", e.name, n)
		}
		used[e.name]++
		im.list = append(im.list, imp)
		im.byHandle[e.handle] = imp.Name()
	}
	return im
}

// All returns the imports in declaration order.
func (im *Imports) All() []Import {
	return append([]Import(nil), im.list...)
}

// Len returns the number of imports.
func (im *Imports) Len() int {
	return len(im.list)
}

// Qualifier returns the name used to qualify members of module handle
// idx: empty for the unit itself, "?" when the handle does not resolve.
func (im *Imports) Qualifier(u unit.Access, idx unit.ModuleHandleIndex) string {
	h, ok := u.ModuleHandle(idx)
	if !ok {
		return "?"
	}
	if self, ok := u.SelfModuleHandle(); ok && self == h {
		return ""
	}
	if name, ok := im.byHandle[h]; ok {
		return name
	}
	return "?"
}
