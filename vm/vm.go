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

// Package vm implements the KASM register-frame interpreter, spec.md
// §4.2: a flat byte memory, a chain of call Frames each carrying 32
// tagged scalar Registers, and a fetch/dispatch loop over a loaded
// kasm.Program.
package vm

import (
	"github.com/pkg/errors"

	"github.com/p0lyh3dron/KAPPAlib-sub000/kasm"
)

// defaultMemorySize is the VM's flat memory size when no MemorySize
// option is given (spec.md §3: "memory: byte array, default 64 KiB").
const defaultMemorySize = 64 * 1024

const numRegisters = 32

// Register is a tagged 64-bit scalar: either a signed integer or the
// raw bit pattern of an IEEE-754 double (spec.md §3, §4.2.3).
type Register struct {
	Bits    int64
	IsFloat bool
}

// Local is one named variable bound within a Frame, backed by a slot
// in the VM's flat memory.
type Local struct {
	Name    string
	Type    string
	IsArray bool
	Addr    int
}

// Frame is one call activation: its own stack/base pointers, program
// counter, registers, locals, and a link to the calling Frame.
type Frame struct {
	SP, BP    int
	PC        int
	Registers [numRegisters]Register
	CmpFlag   bool
	Locals    []Local
	Parent    *Frame
}

// Option configures an Instance at construction time.
type Option func(*Instance) error

// MemorySize overrides the default 64 KiB flat memory buffer.
func MemorySize(n int) Option {
	return func(i *Instance) error {
		if n <= 0 {
			return errors.Errorf("vm: invalid memory size %d", n)
		}
		i.Memory = make([]byte, n)
		return nil
	}
}

// Instance is one running KASM program.
type Instance struct {
	Program *kasm.Program
	Memory  []byte
	Current *Frame
}

// New constructs a VM Instance over a loaded Program, with Current set
// to a root Frame sitting at the top of memory. Push args onto it and
// Call an entry label to start a run (spec.md §6).
func New(prog *kasm.Program, opts ...Option) (*Instance, error) {
	i := &Instance{Program: prog}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, errors.Wrap(err, "vm.New")
		}
	}
	if i.Memory == nil {
		i.Memory = make([]byte, defaultMemorySize)
	}
	i.Current = &Frame{SP: len(i.Memory), BP: len(i.Memory)}
	return i, nil
}

func (i *Instance) isStructType(typ string) bool {
	if len(typ) > 0 && typ[0] == '*' {
		return false
	}
	_, ok := i.Program.Types[typ]
	return ok
}

func isFloatType(typ string) bool {
	return len(typ) > 0 && typ[0] == 'f'
}

// scalarSize mirrors kasm.scalarSize; it is re-declared here since the
// loader keeps its own copy unexported.
func scalarSize(typ string) int {
	if len(typ) > 0 && typ[0] == '*' {
		return 8
	}
	switch typ {
	case "s8", "u8":
		return 1
	case "s16", "u16":
		return 2
	case "s32", "u32", "f32":
		return 4
	default:
		return 8
	}
}
