package kasm_test

import (
	"testing"

	"github.com/p0lyh3dron/KAPPAlib-sub000/kasm"
)

func TestLoad_labelsResolve(t *testing.T) {
	src := "f:\n\tmovrn: r0 2\n\tcallf: g\n\tleave:\ng:\n\tmovrn: r0 1\n\tleave:\n"
	p, err := kasm.Load(src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Instructions) != 5 {
		t.Fatalf("expected 5 instructions, got %d", len(p.Instructions))
	}
	call := p.Instructions[1]
	if call.Op != "callf" {
		t.Fatalf("expected callf, got %s", call.Op)
	}
	if call.Args[0].Target != p.Labels["g"] {
		t.Fatalf("callf target not resolved: %+v", call.Args[0])
	}
}

func TestLoad_unresolvedLabel(t *testing.T) {
	src := "f:\n\tjmpal: nowhere\n"
	if _, err := kasm.Load(src); err == nil {
		t.Fatalf("expected an unresolved-label error")
	}
}

func TestLoad_structMemberOffsets(t *testing.T) {
	src := "point:\n\tnewsv: s64 x\n\tnewsv: s64 y\n"
	p, err := kasm.Load(src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	xOff, ok := p.MemberOffset("x")
	if !ok || xOff != 0 {
		t.Fatalf("expected x at offset 0, got %d (ok=%v)", xOff, ok)
	}
	yOff, ok := p.MemberOffset("y")
	if !ok || yOff != 8 {
		t.Fatalf("expected y at offset 8, got %d (ok=%v)", yOff, ok)
	}
}

func TestDisassemble_roundTrip(t *testing.T) {
	src := "f:\n\tmovrn: r0 2\n\tleave:\n"
	p, err := kasm.Load(src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	out := kasm.Disassemble(p)
	p2, err := kasm.Load(out)
	if err != nil {
		t.Fatalf("Load(disassembled): %v", err)
	}
	if len(p2.Instructions) != len(p.Instructions) {
		t.Fatalf("round-trip instruction count mismatch: %d vs %d", len(p2.Instructions), len(p.Instructions))
	}
}
