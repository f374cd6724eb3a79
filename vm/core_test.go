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
	"testing"

	"github.com/p0lyh3dron/KAPPAlib-sub000/kasm"
)

func mustLoadProgram(t *testing.T, src string) *kasm.Program {
	t.Helper()
	p, err := kasm.Load(src)
	if err != nil {
		t.Fatalf("kasm.Load: %v", err)
	}
	return p
}

// push64/pop64 round-trip restores both the value and sp (spec.md §8
// invariant 3).
func TestPushPop_roundTrip(t *testing.T) {
	prog := mustLoadProgram(t, "f:\n\tleave:\n")
	i, err := New(prog)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f := i.Current
	sp0 := f.SP
	if err := i.push64(f, 1234); err != nil {
		t.Fatalf("push64: %v", err)
	}
	v, err := i.pop64(f)
	if err != nil {
		t.Fatalf("pop64: %v", err)
	}
	if v != 1234 {
		t.Fatalf("expected 1234, got %d", v)
	}
	if f.SP != sp0 {
		t.Fatalf("sp not restored: got %d, want %d", f.SP, sp0)
	}
}

func TestPop_underflowAtTopOfMemory(t *testing.T) {
	prog := mustLoadProgram(t, "f:\n\tleave:\n")
	i, err := New(prog, MemorySize(64))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := i.pop64(i.Current); err == nil {
		t.Fatalf("expected a stack_underflow error")
	} else if e, ok := err.(*Error); !ok || e.Kind != StackUnderflow {
		t.Fatalf("expected StackUnderflow, got %v", err)
	}
}

func TestPush_overflowWhenMemoryExhausted(t *testing.T) {
	prog := mustLoadProgram(t, "f:\n\tleave:\n")
	i, err := New(prog, MemorySize(4))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := i.push64(i.Current, 1); err == nil {
		t.Fatalf("expected a stack_overflow error")
	} else if e, ok := err.(*Error); !ok || e.Kind != StackOverflow {
		t.Fatalf("expected StackOverflow, got %v", err)
	}
}

// Call/Loop round-trips back to the frame that was current before the
// call (spec.md §8 invariant 4).
func TestCallLoop_frameRoundTrip(t *testing.T) {
	src := "f:\n\tmovrn: r0 7\n\tleave:\n"
	prog := mustLoadProgram(t, src)
	i, err := New(prog)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	start := i.Current
	result, err := i.Run("f")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if i.Current != start {
		t.Fatalf("expected current frame to round-trip back to start")
	}
	if result != 7 {
		t.Fatalf("expected 7, got %v", result)
	}
}

func TestCall_unresolvedLabel(t *testing.T) {
	prog := mustLoadProgram(t, "f:\n\tleave:\n")
	i, err := New(prog)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := i.Call("nowhere"); err == nil {
		t.Fatalf("expected an unresolved_label error")
	} else if e, ok := err.(*Error); !ok || e.Kind != UnresolvedLabel {
		t.Fatalf("expected UnresolvedLabel, got %v", err)
	}
}

// Arithmetic promotion: mixed int/float operands reinterpret both
// sides' bits as float64, per spec.md §4.2.3 and §8 invariant 2.
func TestArithmetic_mixedPromotion(t *testing.T) {
	l := Register{Bits: floatToBits(2.0), IsFloat: true}
	r := Register{Bits: 3}
	got, err := arithmetic("add", l, r)
	if err != nil {
		t.Fatalf("arithmetic: %v", err)
	}
	if !got.IsFloat {
		t.Fatalf("expected a float-tagged result")
	}
	want := 2.0 + bitsToFloat(3)
	if bitsToFloat(got.Bits) != want {
		t.Fatalf("expected %v, got %v", want, bitsToFloat(got.Bits))
	}
}

func TestArithmetic_intDivideByZero(t *testing.T) {
	_, err := arithmetic("div", Register{Bits: 1}, Register{Bits: 0})
	if err == nil {
		t.Fatalf("expected a divide_by_zero error")
	} else if e, ok := err.(*Error); !ok || e.Kind != DivideByZero {
		t.Fatalf("expected DivideByZero, got %v", err)
	}
}

// compare's result value is a plain 0/1 int64, never a float-bit
// reinterpretation of 0/1, even when the IsFloat tag is set (see
// DESIGN.md's documented deviation from the source's literal
// comparison-opcode behavior).
func TestCompare_resultIsPlainBoolean(t *testing.T) {
	got, err := compare("les", Register{Bits: floatToBits(1.0), IsFloat: true}, Register{Bits: floatToBits(2.0), IsFloat: true})
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !got.IsFloat {
		t.Fatalf("expected the float tag to be preserved")
	}
	if got.Bits != 1 {
		t.Fatalf("expected a plain 1, got %d", got.Bits)
	}
}
