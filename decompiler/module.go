package decompiler

import (
	"context"
	"fmt"
	"runtime"

	"github.com/chazu/movedc/pkg/bytecode"
	"github.com/chazu/movedc/pkg/unit"
	"golang.org/x/sync/errgroup"
)

// Options controls unit decompilation.
type Options struct {
	// Light replaces every function body with "abort 1".
	Light bool
	// Workers bounds concurrent function translations; 0 means GOMAXPROCS.
	Workers int
}

// SourceUnit is a decompiled module or script.
type SourceUnit struct {
	Script    bool
	Address   unit.Address
	Name      string
	Imports   []Import
	Structs   []StructDecl
	Functions []FunctionDecl
}

// FieldDecl is a struct field.
type FieldDecl struct {
	Name string
	Type Type
}

// StructDecl is a decompiled struct definition. Fields is empty for
// native structs.
type StructDecl struct {
	Name       string
	Native     bool
	Abilities  unit.AbilitySet
	TypeParams []Generic
	Fields     []FieldDecl
}

// FunctionDecl is a decompiled function. Body is nil for native
// functions.
type FunctionDecl struct {
	Name       string
	Visibility unit.Visibility
	Entry      bool
	Native     bool
	TypeParams []Generic
	Params     []Local
	Returns    []Type
	Acquires   []StructName
	Vars       []Local
	Body       []Node
}

// DecompileUnit decompiles every declaration of u. Function bodies are
// translated concurrently; the first translation error cancels the rest.
func DecompileUnit(ctx context.Context, u unit.Access, opts Options) (*SourceUnit, error) {
	imports := NewImports(u)
	prefix := GenericPrefix(u)

	su := &SourceUnit{Script: u.IsScript(), Imports: imports.All()}
	if self, ok := u.SelfModuleHandle(); ok {
		su.Address, _ = u.Address(self.Address)
		su.Name, _ = u.Identifier(self.Name)
	}

	for _, def := range u.StructDefs() {
		su.Structs = append(su.Structs, structDecl(u, imports, prefix, def))
	}

	var jobs []bodyJob
	if script, ok := u.ScriptCode(); ok {
		decl, job := scriptDecl(u, imports, prefix, script)
		su.Functions = append(su.Functions, decl)
		jobs = append(jobs, job)
	} else {
		for _, def := range u.FunctionDefs() {
			decl, job := functionDecl(u, imports, prefix, def)
			su.Functions = append(su.Functions, decl)
			jobs = append(jobs, job)
		}
	}

	if err := translateBodies(ctx, su.Functions, jobs, opts); err != nil {
		return nil, err
	}
	return su, nil
}

// bodyJob is the pending translation of one function body.
type bodyJob struct {
	code     []bytecode.Instruction
	lookup   *Lookup
	retArity int
}

func translateBodies(ctx context.Context, decls []FunctionDecl, jobs []bodyJob, opts Options) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range decls {
		decl := &decls[i]
		if decl.Native {
			continue
		}
		if opts.Light {
			decl.Vars = nil
			decl.Body = mockBody()
			continue
		}
		job := jobs[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			body, err := Translate(job.code, job.lookup, job.retArity)
			if err != nil {
				return fmt.Errorf("decompile %s: %w", decl.Name, err)
			}
			decl.Body = body
			return nil
		})
	}
	return g.Wait()
}

// mockBody is the light-mode body: abort 1.
func mockBody() []Node {
	code := Node{Offset: 0, Exp: &Literal{Kind: LitU64, Int: 1}}
	return []Node{{Offset: 1, Exp: &Abort{Code: code}}}
}

func structDecl(u unit.Access, imports *Imports, prefix string, def unit.StructDefinition) StructDecl {
	h, _ := u.StructHandle(def.Handle)
	name, ok := u.Identifier(h.Name)
	if !ok {
		name = "?"
	}
	generics := NewGenerics(prefix, h.TypeParameters)
	types := typeResolver{unit: u, imports: imports, generics: generics}

	decl := StructDecl{Name: name, Native: def.Native, Abilities: h.Abilities, TypeParams: generics}
	for _, f := range def.Fields {
		fname, ok := u.Identifier(f.Name)
		if !ok {
			fname = "?"
		}
		decl.Fields = append(decl.Fields, FieldDecl{Name: fname, Type: types.resolve(f.Type)})
	}
	return decl
}

func functionDecl(u unit.Access, imports *Imports, prefix string, def unit.FunctionDefinition) (FunctionDecl, bodyJob) {
	h, _ := u.FunctionHandle(def.Handle)
	name, ok := u.Identifier(h.Name)
	if !ok {
		name = "?"
	}
	generics := NewGenerics(prefix, h.TypeParameters)
	types := typeResolver{unit: u, imports: imports, generics: generics}
	params, _ := types.signature(h.Parameters)
	returns, _ := types.signature(h.Return)

	decl := FunctionDecl{
		Name:       name,
		Visibility: def.Visibility,
		Entry:      def.Entry,
		Native:     def.IsNative(),
		TypeParams: generics,
		Returns:    returns,
	}

	lookup := newFunctionLookup(u, imports, generics, params, def.Code)
	decl.Params = lookup.Locals.Params()
	decl.Vars = lookup.Locals.Vars()

	for _, idx := range def.Acquires {
		if _, sn, ok := lookup.structDef(idx); ok {
			decl.Acquires = append(decl.Acquires, sn)
		}
	}

	var job bodyJob
	if def.Code != nil {
		job = bodyJob{code: def.Code.Code, lookup: lookup, retArity: len(returns)}
	}
	return decl, job
}

func scriptDecl(u unit.Access, imports *Imports, prefix string, script *unit.ScriptBody) (FunctionDecl, bodyJob) {
	generics := NewGenerics(prefix, script.TypeParameters)
	types := typeResolver{unit: u, imports: imports, generics: generics}
	params, _ := types.signature(script.Parameters)

	lookup := newFunctionLookup(u, imports, generics, params, &script.Code)
	decl := FunctionDecl{
		Name:       "main",
		TypeParams: generics,
		Params:     lookup.Locals.Params(),
		Vars:       lookup.Locals.Vars(),
	}
	return decl, bodyJob{code: script.Code.Code, lookup: lookup}
}

func newFunctionLookup(u unit.Access, imports *Imports, generics []Generic, params []Type, code *unit.CodeUnit) *Lookup {
	var locals unit.Signature
	if code != nil {
		locals, _ = u.Signature(code.Locals)
	}
	return NewLookup(u, imports, generics, params, locals)
}
