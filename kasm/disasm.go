package kasm

import (
	"fmt"
	"strings"
)

// Disassemble renders a loaded Program back to KASM text: each label is
// printed as a label line before the instruction it points at, and
// label-valued arguments are printed by name. It is a read-only
// debugging aid; Load never consumes its own output as anything but
// ordinary KASM text.
func Disassemble(p *Program) string {
	var b strings.Builder
	byIndex := map[int][]string{}
	for name, idx := range p.Labels {
		byIndex[idx] = append(byIndex[idx], name)
	}
	for i, inst := range p.Instructions {
		for _, name := range byIndex[i] {
			fmt.Fprintf(&b, "%s:\n", name)
		}
		b.WriteByte('\t')
		b.WriteString(inst.Op)
		b.WriteByte(':')
		for _, a := range inst.Args {
			b.WriteByte(' ')
			b.WriteString(formatArg(a))
		}
		b.WriteByte('\n')
	}
	for _, name := range byIndex[len(p.Instructions)] {
		fmt.Fprintf(&b, "%s:\n", name)
	}
	return b.String()
}

func formatArg(a Arg) string {
	switch a.Kind {
	case ArgReg:
		return fmt.Sprintf("r%d", a.Reg)
	case ArgIntImm:
		return fmt.Sprintf("%d", a.IntImm)
	case ArgFloatImm:
		return fmt.Sprintf("%g", a.FloatImm)
	default:
		return a.Name
	}
}
