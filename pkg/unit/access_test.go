package unit

import "testing"

func TestUnitAccess(t *testing.T) {
	u := sampleUnit()

	if u.IsScript() {
		t.Fatal("module reported as script")
	}
	self, ok := u.SelfModuleHandle()
	if !ok || self.Name != 0 {
		t.Fatalf("SelfModuleHandle() = %v, %v", self, ok)
	}
	if _, ok := u.Identifier(99); ok {
		t.Error("Identifier(99) should miss")
	}
	if _, ok := u.StructDefInstantiation(0); ok {
		t.Error("empty instantiation pool should miss")
	}
	def, ok := u.StructDef(0)
	if !ok || len(def.Fields) != 1 {
		t.Errorf("StructDef(0) = %v, %v", def, ok)
	}
	if len(u.FunctionDefs()) != 1 || u.FunctionDefs()[0].IsNative() {
		t.Error("expected one non-native function")
	}

	u.Script = &ScriptBody{}
	if !u.IsScript() {
		t.Error("unit with script body should be a script")
	}
	if _, ok := u.SelfModuleHandle(); ok {
		t.Error("script has no self module")
	}
}

func TestUnitInstantiationsReturnPoolEntries(t *testing.T) {
	u := &Unit{
		FunctionInstantiations: []FunctionInstantiation{{Handle: 3, TypeParameters: 1}},
	}
	fi, ok := u.FunctionInstantiation(0)
	if !ok || fi.Handle != 3 || fi.TypeParameters != 1 {
		t.Errorf("FunctionInstantiation(0) = %+v, %v", fi, ok)
	}
}
