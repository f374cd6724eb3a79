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

import "encoding/binary"

// readInt64 loads 8 bytes at addr as a little-endian int64, per the
// flat byte memory model of spec.md §3.
func (i *Instance) readInt64(addr int) (int64, error) {
	if addr < 0 || addr+8 > len(i.Memory) {
		return 0, newError(IllegalAddress, "address %d out of range", addr)
	}
	return int64(binary.LittleEndian.Uint64(i.Memory[addr:])), nil
}

func (i *Instance) writeInt64(addr int, v int64) error {
	if addr < 0 || addr+8 > len(i.Memory) {
		return newError(IllegalAddress, "address %d out of range", addr)
	}
	binary.LittleEndian.PutUint64(i.Memory[addr:], uint64(v))
	return nil
}

// push64 reserves 8 bytes below f.SP and stores v there, per spec.md
// §4.2.1's downward-growing per-frame stack.
func (i *Instance) push64(f *Frame, v int64) error {
	if f.SP-8 < 0 {
		return newError(StackOverflow, "stack overflow")
	}
	f.SP -= 8
	return i.writeInt64(f.SP, v)
}

// pop64 reads 8 bytes at f.SP and grows it back. Popping an empty
// frame stack (sp already at the top of memory) is a stack underflow,
// per spec.md §7.
func (i *Instance) pop64(f *Frame) (int64, error) {
	if f.SP == len(i.Memory) {
		return 0, newError(StackUnderflow, "stack underflow")
	}
	v, err := i.readInt64(f.SP)
	if err != nil {
		return 0, err
	}
	f.SP += 8
	return v, nil
}

// reserve carves sz bytes below f.SP for a new local and returns its
// address, without initializing its contents (spec.md §4.2.5's newsv
// / newav).
func (i *Instance) reserve(f *Frame, sz int) (int, error) {
	if f.SP-sz < 0 {
		return 0, newError(StackOverflow, "stack overflow")
	}
	f.SP -= sz
	return f.SP, nil
}
