// This file is part of ngaro - https://github.com/db47h/ngaro
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vm

import (
	"github.com/p0lyh3dron/KAPPAlib-sub000/kasm"
)

// exec executes a single decoded instruction against the currently
// active Frame, per the opcode table of spec.md §4.2.2.
func (i *Instance) exec(inst kasm.Instruction) error {
	f := i.Current
	switch inst.Op {
	case "pushr":
		return i.push64(f, f.Registers[inst.Args[0].Reg].Bits)
	case "poprr":
		v, err := i.pop64(f)
		if err != nil {
			return err
		}
		f.Registers[inst.Args[0].Reg] = Register{Bits: v}
		return nil
	case "newsv":
		return i.declareLocal(f, inst.Args[0].Name, inst.Args[1].Name)
	case "newav":
		return i.declareArray(f, inst.Args[0].Name, inst.Args[1].Name, int(inst.Args[2].IntImm))
	case "leave":
		if f.Parent == nil {
			return newError(IllegalAddress, "leave with no caller frame")
		}
		f.Parent.Registers[0] = f.Registers[0]
		i.Current = f.Parent
		return nil
	case "movrn":
		f.Registers[inst.Args[0].Reg] = Register{Bits: inst.Args[1].IntImm}
		return nil
	case "movrf":
		f.Registers[inst.Args[0].Reg] = Register{Bits: floatToBits(inst.Args[1].FloatImm), IsFloat: true}
		return nil
	case "movrr":
		f.Registers[inst.Args[0].Reg] = f.Registers[inst.Args[1].Reg]
		return nil
	case "callf":
		return i.execCallf(inst)
	case "loadr":
		return i.execLoadr(inst)
	case "saver":
		loc, ok := findLocal(f, inst.Args[0].Name)
		if !ok {
			return newError(UnknownLocal, "undeclared local %q", inst.Args[0].Name)
		}
		return i.writeInt64(loc.Addr, f.Registers[inst.Args[1].Reg].Bits)
	case "refsv":
		loc, ok := findLocal(f, inst.Args[1].Name)
		if !ok {
			return newError(UnknownLocal, "undeclared local %q", inst.Args[1].Name)
		}
		f.Registers[inst.Args[0].Reg] = Register{Bits: int64(loc.Addr), IsFloat: isFloatType(loc.Type)}
		return nil
	case "deref":
		addr := f.Registers[inst.Args[1].Reg].Bits
		v, err := i.readInt64(int(addr))
		if err != nil {
			return err
		}
		f.Registers[inst.Args[0].Reg] = Register{Bits: v}
		return nil
	case "savea":
		addr := f.Registers[inst.Args[0].Reg].Bits
		return i.writeInt64(int(addr), f.Registers[inst.Args[1].Reg].Bits)
	case "adszr":
		off, ok := i.Program.MemberOffset(inst.Args[2].Name)
		if !ok {
			return newError(UnknownLocal, "unknown struct member %q", inst.Args[2].Name)
		}
		base := f.Registers[inst.Args[1].Reg].Bits
		f.Registers[inst.Args[0].Reg] = Register{Bits: base + int64(off)}
		return nil
	case "negrr":
		r := f.Registers[inst.Args[1].Reg]
		if r.IsFloat {
			f.Registers[inst.Args[0].Reg] = Register{Bits: floatToBits(-bitsToFloat(r.Bits)), IsFloat: true}
		} else {
			f.Registers[inst.Args[0].Reg] = Register{Bits: -r.Bits}
		}
		return nil
	case "cmprd":
		f.CmpFlag = f.Registers[inst.Args[0].Reg].Bits == inst.Args[1].IntImm
		return nil
	case "jmpeq":
		if f.CmpFlag {
			f.PC = inst.Args[0].Target - 1
		}
		return nil
	case "jmpal":
		f.PC = inst.Args[0].Target - 1
		return nil
	default:
		if mnem, ok := comparisonMnemonics[inst.Op]; ok {
			return i.execBinary(inst, func(l, r Register) (Register, error) { return compare(mnem, l, r) })
		}
		if mnem, ok := arithmeticMnemonics[inst.Op]; ok {
			return i.execBinary(inst, func(l, r Register) (Register, error) { return arithmetic(mnem, l, r) })
		}
		return newError(IllegalAddress, "unknown opcode %q", inst.Op)
	}
}

func (i *Instance) execBinary(inst kasm.Instruction, op func(l, r Register) (Register, error)) error {
	f := i.Current
	l := f.Registers[inst.Args[1].Reg]
	r := f.Registers[inst.Args[2].Reg]
	result, err := op(l, r)
	if err != nil {
		return err
	}
	f.Registers[inst.Args[0].Reg] = result
	return nil
}

func (i *Instance) execLoadr(inst kasm.Instruction) error {
	f := i.Current
	loc, ok := findLocal(f, inst.Args[1].Name)
	if !ok {
		return newError(UnknownLocal, "undeclared local %q", inst.Args[1].Name)
	}
	if loc.IsArray || i.isStructType(loc.Type) {
		f.Registers[inst.Args[0].Reg] = Register{Bits: int64(loc.Addr)}
		return nil
	}
	v, err := i.readInt64(loc.Addr)
	if err != nil {
		return err
	}
	f.Registers[inst.Args[0].Reg] = Register{Bits: v, IsFloat: isFloatType(loc.Type)}
	return nil
}

// execCallf allocates a new Frame for the callee, inheriting
// sp = bp = the caller's current sp (spec.md §4.2.1). Its pc is
// pre-decremented so that Loop's unconditional post-exec PC++ lands
// exactly on the callee's first instruction; the caller's own pc is
// left untouched (still pointing at this callf) so that the matching
// leave, which just switches i.Current back to the caller, resumes
// correctly at the following instruction once Loop's PC++ fires again.
func (i *Instance) execCallf(inst kasm.Instruction) error {
	name := inst.Args[0].Name
	target, ok := i.Program.Labels[name]
	if !ok {
		return newError(UnresolvedLabel, "unresolved label %q", name)
	}
	parent := i.Current
	i.Current = &Frame{SP: parent.SP, BP: parent.SP, PC: target - 1, Parent: parent}
	return nil
}
