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

import "github.com/pkg/errors"

// findLocal looks up a name within a single Frame's own Locals. Locals
// never cross a frame boundary: KAPPA has no nested functions or
// lexical closures, so parent frames are never searched.
func findLocal(f *Frame, name string) (*Local, bool) {
	for idx := range f.Locals {
		if f.Locals[idx].Name == name {
			return &f.Locals[idx], true
		}
	}
	return nil, false
}

func (i *Instance) declareLocal(f *Frame, typ, name string) error {
	addr, err := i.reserve(f, scalarSize(typ))
	if err != nil {
		return err
	}
	f.Locals = append(f.Locals, Local{Name: name, Type: typ, Addr: addr})
	return nil
}

func (i *Instance) declareArray(f *Frame, typ, name string, n int) error {
	addr, err := i.reserve(f, scalarSize(typ)*n)
	if err != nil {
		return err
	}
	f.Locals = append(f.Locals, Local{Name: name, Type: typ, IsArray: true, Addr: addr})
	return nil
}

// Push writes one 64-bit value onto the currently active Frame's
// stack, for passing an argument ahead of Call (spec.md §6's host
// API).
func (i *Instance) Push(v int64) error {
	return i.push64(i.Current, v)
}

// Call allocates a new Frame inheriting sp = bp = the caller's current
// sp, and sets it running from label's first instruction (spec.md
// §4.2.1, §4.2.2's callf).
func (i *Instance) Call(label string) error {
	target, ok := i.Program.Labels[label]
	if !ok {
		return newError(UnresolvedLabel, "unresolved label %q", label)
	}
	parent := i.Current
	i.Current = &Frame{SP: parent.SP, BP: parent.SP, PC: target, Parent: parent}
	return nil
}

// Loop executes instructions until control returns to start (the
// Frame active before the matching Call), then returns r0 of that
// Frame converted to a float64 by registerToHostFloat, per spec.md §6's
// loop(frame).
func (i *Instance) Loop(start *Frame) (result float64, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errors.Errorf("vm: %v", e)
		}
	}()
	for i.Current != start {
		f := i.Current
		if f.PC < 0 || f.PC >= len(i.Program.Instructions) {
			return 0, newError(IllegalAddress, "program counter %d out of range", f.PC)
		}
		inst := i.Program.Instructions[f.PC]
		if err := i.exec(inst); err != nil {
			return 0, errors.Wrapf(err, "line %d (%s)", inst.Line, inst.Op)
		}
		i.Current.PC++
	}
	return registerToHostFloat(start.Registers[0]), nil
}

// registerToHostFloat converts r0 to the f64 the host API returns
// (spec.md §6). A float-tagged register already holds a float64 bit
// pattern and is returned as-is; an int-tagged register is converted
// numerically (not bit-reinterpreted) so that integer-returning KAPPA
// functions surface their natural value to host callers — see
// DESIGN.md for why this departs from a literal bit reinterpretation
// of every r0, which would turn S1's `14` into garbage.
func registerToHostFloat(r Register) float64 {
	if r.IsFloat {
		return bitsToFloat(r.Bits)
	}
	return float64(r.Bits)
}

// Run is the convenience form of Push+Call+Loop: push args in order,
// call label, and run until it returns.
func (i *Instance) Run(label string, args ...int64) (float64, error) {
	start := i.Current
	sp := start.SP
	// The callee pops the arguments from its own frame, so the caller's
	// sp is put back once the run ends.
	defer func() { start.SP = sp }()
	for _, a := range args {
		if err := i.Push(a); err != nil {
			return 0, err
		}
	}
	if err := i.Call(label); err != nil {
		return 0, err
	}
	return i.Loop(start)
}
