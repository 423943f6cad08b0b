// Package doc renders analysis plans for terminal display.
package doc

import (
	"fmt"
	"strings"

	"github.com/rubiojr/bindplan/plan"
)

// FormatPlan lists every namespace of a plan with its functions, then the
// auxiliary APIs and failures.
func FormatPlan(p *plan.Plan) string {
	var sb strings.Builder

	for _, ns := range p.Namespaces() {
		sb.WriteString(FormatNamespace(ns))
		sb.WriteString("\n")
	}

	if len(p.ExtraAPIs) > 0 {
		sb.WriteString("Extra APIs:\n")
		for _, e := range p.ExtraAPIs {
			line := fmt.Sprintf("  %-20s %s", e.Kind, e.Name)
			if e.Instantiation != "" {
				line += " = " + e.Instantiation
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(p.Diagnostics) > 0 {
		sb.WriteString(FormatDiagnostics(p.Diagnostics))
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// FormatNamespace formats one namespace: a header and one line per
// function.
func FormatNamespace(ns *plan.Namespace) string {
	var sb strings.Builder

	name := ns.Name
	if name == "" {
		name = "(root)"
	}
	sb.WriteString(fmt.Sprintf("namespace %s", name))
	sb.WriteString("\n")

	for _, f := range ns.Functions {
		line := fmt.Sprintf("  %-12s %s", f.Kind, Signature(f))
		if f.Shim != nil {
			line += "  [shim]"
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatFunction formats a single function lookup result.
func FormatFunction(f *plan.Function) string {
	var sb strings.Builder
	sb.WriteString(Signature(f))
	sb.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		sb.WriteString(fmt.Sprintf("    %-10s %s\n", label+":", value))
	}
	field("key", f.Key)
	field("kind", f.Kind)
	field("owner", f.Owner)
	field("bridge", f.BridgeName)
	field("native", f.NativeName)
	rename := f.Rename
	if f.Alias != "" {
		rename += " as " + f.Alias
	}
	field("rename", rename)
	if f.RequiresUnsafe {
		field("unsafe", "yes")
	}
	if len(f.Deps) > 0 {
		field("deps", strings.Join(f.Deps, ", "))
	}
	if s := f.Shim; s != nil {
		target := s.NativeName
		if s.Owner != "" {
			target = s.Owner + "::" + target
		}
		if s.Namespace != "" && target != "" {
			target = s.Namespace + "::" + target
		}
		shim := s.Payload
		if target != "" {
			shim += " " + target
		}
		field("shim", shim)
		for i, c := range s.Args {
			field(fmt.Sprintf("arg %d", i), formatConversion(c))
		}
		if s.Return != nil {
			field("return", formatConversion(*s.Return))
		}
	}
	return sb.String()
}

// FormatDiagnostics lists failed declarations.
func FormatDiagnostics(diags []plan.Diagnostic) string {
	var sb strings.Builder
	sb.WriteString("Failed declarations:\n")
	for _, d := range diags {
		sb.WriteString(fmt.Sprintf("  %-30s %s\n", d.Key, d.Message))
	}
	return sb.String()
}

// Signature renders the managed-side view of f.
func Signature(f *plan.Function) string {
	var params []string
	for _, p := range f.Params {
		params = append(params, p.Name+": "+p.Type)
	}
	name := f.ManagedName
	if f.Owner != "" {
		name = f.Owner + "::" + name
	}
	sig := fmt.Sprintf("%s(%s)", name, strings.Join(params, ", "))
	if f.Return != "" {
		sig += " -> " + f.Return
	}
	return sig
}

func formatConversion(c plan.Conversion) string {
	if c.Native == c.Boundary {
		return fmt.Sprintf("%s %s", c.Kind, c.Native)
	}
	return fmt.Sprintf("%s %s => %s", c.Kind, c.Native, c.Boundary)
}
