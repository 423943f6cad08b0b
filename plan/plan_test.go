package plan

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/rubiojr/bindplan/bridge"
	"github.com/rubiojr/bindplan/decl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustType(s string) *decl.Type {
	t, err := decl.ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

func samplePlan(t *testing.T) *Plan {
	t.Helper()
	owner := decl.ParseQualifiedName("ui::Widget")
	decls := []*decl.Declaration{
		{Ident: "native_add", Params: []decl.Param{{Name: "a", Type: mustType("int")}, {Name: "b", Type: mustType("int")}}, Return: mustType("int")},
		{Namespace: "ui", Ident: "Widget_new", Params: []decl.Param{{Name: "this", Type: mustType("ui::Widget*")}}},
		{Namespace: "ui", Ident: "Widget_count", Owner: &owner, Return: mustType("int")},
		{Namespace: "ui", Ident: "set_label", Params: []decl.Param{{Name: "s", Type: mustType("std::string")}}},
		{Ident: "Widget_destructor"},
		{Ident: "broken", SpecialMember: decl.SpecialMoveConstructor},
	}
	out := bridge.NewAnalyzer(bridge.Options{Allowlist: bridge.NewAllowTypes("ui::Widget")}, nil).Run(decls)
	return Build(out, "run-1")
}

func TestBuild(t *testing.T) {
	p := samplePlan(t)
	require.Len(t, p.Functions, 4)
	assert.Equal(t, "run-1", p.RunID)

	add := p.Functions[0]
	assert.Equal(t, "function", add.Kind)
	assert.Equal(t, "native_add", add.BridgeName)
	assert.Equal(t, "none", add.Rename)
	assert.Equal(t, "int", add.Return)
	assert.Nil(t, add.Shim)
	assert.Equal(t, "native_add", add.AllowlistName)

	ctor := p.Functions[1]
	assert.Equal(t, "constructor", ctor.Kind)
	assert.Equal(t, "ui::Widget", ctor.Owner)
	assert.Equal(t, "owned<ui::Widget>", ctor.Return)
	require.NotNil(t, ctor.Shim)
	assert.Equal(t, "constructor", ctor.Shim.Payload)
	require.NotNil(t, ctor.Shim.Return)
	assert.Equal(t, Conversion{Kind: "to_owned_pointer", Native: "ui::Widget", Boundary: "owned<ui::Widget>"}, *ctor.Shim.Return)
	assert.Equal(t, []string{"ui::Widget"}, ctor.Deps)

	add = p.Functions[0]
	require.Len(t, add.Args, 2)
	assert.Equal(t, Arg{Name: "a", Type: "int", Conversion: Conversion{Kind: "unconverted", Native: "int", Boundary: "int"}}, add.Args[0])

	static := p.Functions[2]
	assert.Equal(t, "static", static.Kind)
	require.NotNil(t, static.Shim)
	assert.Equal(t, "static_call", static.Shim.Payload)
	assert.Equal(t, "Widget", static.Shim.Owner)
	assert.Equal(t, "ui", static.Shim.Namespace)

	label := p.Functions[3]
	assert.Equal(t, "attribute", label.Rename)
	assert.Equal(t, []Param{{Name: "s", Type: "str"}}, label.Params)
	require.Len(t, label.Args, 1)
	assert.Equal(t, "from_borrowed_string", label.Args[0].Conversion.Kind)
	assert.Equal(t, "str", label.Args[0].Conversion.Boundary)

	require.Len(t, p.ExtraAPIs, 1)
	assert.Equal(t, ExtraAPI{Kind: "string_constructor", Name: bridge.StringConstructorName}, p.ExtraAPIs[0])
	require.Len(t, p.Diagnostics, 1)
	assert.Equal(t, "move_constructor_unsupported", p.Diagnostics[0].Code)
	assert.True(t, p.Failed())
	assert.Equal(t, []Dropped{{Key: "Widget_destructor", Reason: bridge.DropDestructor}}, p.Dropped)
}

func TestBuild_ReceiverArgs(t *testing.T) {
	shape := decl.ParseQualifiedName("Shape")
	out := bridge.NewAnalyzer(bridge.Options{Allowlist: bridge.NewAllowTypes("Shape")}, nil).Run([]*decl.Declaration{
		{Ident: "Shape_area", Params: []decl.Param{{Name: decl.ReceiverParam, Type: mustType("const void*")}}, Return: mustType("double"), VirtualReceiver: &shape},
		{Ident: "Shape_poke", Params: []decl.Param{{Name: decl.ReceiverParam, Type: mustType("Shape*")}, {Name: "p", Type: mustType("int*")}}},
	})
	p := Build(out, "run-1")
	require.Len(t, p.Functions, 2)

	area := p.Functions[0].Args
	require.Len(t, area, 1)
	assert.Equal(t, "self", area[0].Name)
	assert.Equal(t, "Shape", area[0].SelfType)
	assert.True(t, area[0].WasReference)
	assert.True(t, area[0].IsVirtual)
	assert.Equal(t, []string{"Shape"}, area[0].Deps)

	poke := p.Functions[1].Args
	require.Len(t, poke, 2)
	assert.False(t, poke[0].IsVirtual)
	assert.True(t, poke[1].RequiresUnsafe)
	assert.Empty(t, poke[1].SelfType)
}

func TestNamespacesAndLookup(t *testing.T) {
	p := samplePlan(t)

	nss := p.Namespaces()
	require.Len(t, nss, 2)
	assert.Equal(t, "", nss[0].Name)
	assert.Len(t, nss[0].Functions, 1)
	assert.Equal(t, "ui", nss[1].Name)
	assert.Len(t, nss[1].Functions, 3)

	assert.Len(t, p.Lookup("native_add"), 1)
	assert.Len(t, p.Lookup("ui::Widget::make_unique"), 1)
	assert.Len(t, p.Lookup("set_label_bindplan_wrapper"), 1)
	assert.Len(t, p.Lookup("ui::Widget::count"), 1)
	assert.Len(t, p.Lookup("ui::Widget::Widget_count"), 1)
	assert.Empty(t, p.Lookup("nope"))
}

func TestWriteRead(t *testing.T) {
	p := samplePlan(t)
	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, p, format))

			got, err := Read(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, p.Functions, got.Functions)
			assert.Equal(t, p.Diagnostics, got.Diagnostics)
		})
	}

	var buf bytes.Buffer
	assert.Error(t, Write(&buf, p, "xml"))
}

func TestWriteDeterministic(t *testing.T) {
	runs := 0
	render := func() string {
		p := samplePlan(t)
		runs++
		p.RunID = fmt.Sprintf("run-%d", runs)
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, p, "json"))
		return buf.String()
	}
	first := render()
	assert.Equal(t, first, render())
	assert.Contains(t, first, `"bridge_name": "native_add"`)
	assert.NotContains(t, first, "run-1", "the run id is not part of the document")
}

func TestLockFromPlan(t *testing.T) {
	lf := LockFromPlan(samplePlan(t))
	require.Len(t, lf.Entries, 4)
	e := lf.Lookup("ui::Widget_new")
	require.NotNil(t, e)
	assert.Equal(t, "make_unique_bindplan_wrapper", e.Bridge)
	assert.Equal(t, "make_unique", e.Managed)
}
