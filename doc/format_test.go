package doc

import (
	"testing"

	"github.com/rubiojr/bindplan/plan"
	"github.com/stretchr/testify/assert"
)

func samplePlan() *plan.Plan {
	return &plan.Plan{
		Functions: []*plan.Function{
			{
				Key: "native_add", Kind: "function", BridgeName: "native_add", ManagedName: "native_add",
				Ident: "native_add", NativeName: "native_add", Rename: "none",
				Params: []plan.Param{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}}, Return: "int",
			},
			{
				Key: "ui::Widget_new", Namespace: "ui", Kind: "constructor", Owner: "ui::Widget",
				BridgeName: "make_unique_bindplan_wrapper", ManagedName: "make_unique", Ident: "make_unique",
				NativeName: "make_unique", Rename: "none", Return: "owned<ui::Widget>", Deps: []string{"ui::Widget"},
				Shim: &plan.Shim{
					Payload:     "constructor",
					WrapperName: "make_unique_bindplan_wrapper",
					Return:      &plan.Conversion{Kind: "to_owned_pointer", Native: "ui::Widget", Boundary: "owned<ui::Widget>"},
				},
			},
		},
		ExtraAPIs:   []plan.ExtraAPI{{Kind: "concrete_type", Name: "Concrete_Box_int", Instantiation: "Box<int>"}},
		Diagnostics: []plan.Diagnostic{{Key: "broken", Code: "move_constructor_unsupported", Message: "broken: move constructors are not supported"}},
	}
}

func TestSignature(t *testing.T) {
	p := samplePlan()
	assert.Equal(t, "native_add(a: int, b: int) -> int", Signature(p.Functions[0]))
	assert.Equal(t, "ui::Widget::make_unique() -> owned<ui::Widget>", Signature(p.Functions[1]))
}

func TestFormatPlan(t *testing.T) {
	out := FormatPlan(samplePlan())
	assert.Contains(t, out, "namespace (root)\n")
	assert.Contains(t, out, "namespace ui\n")
	assert.Contains(t, out, "  constructor  ui::Widget::make_unique() -> owned<ui::Widget>  [shim]\n")
	assert.Contains(t, out, "Extra APIs:\n  concrete_type        Concrete_Box_int = Box<int>\n")
	assert.Contains(t, out, "Failed declarations:\n")
	assert.Contains(t, out, "move constructors are not supported")
	assert.Equal(t, byte('\n'), out[len(out)-1])
}

func TestFormatFunction(t *testing.T) {
	out := FormatFunction(samplePlan().Functions[1])
	assert.Contains(t, out, "    bridge:    make_unique_bindplan_wrapper\n")
	assert.Contains(t, out, "    shim:      constructor\n")
	assert.Contains(t, out, "    return:    to_owned_pointer ui::Widget => owned<ui::Widget>\n")
	assert.Contains(t, out, "    deps:      ui::Widget\n")
	assert.NotContains(t, out, "unsafe:")
}
