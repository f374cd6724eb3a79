package kasm

import (
	"bufio"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/pkg/errors"
)

// ArgKind classifies one resolved instruction argument.
type ArgKind int

const (
	ArgNone ArgKind = iota
	ArgReg
	ArgIntImm
	ArgFloatImm
	ArgName
)

// Arg is one pre-resolved instruction argument (spec.md §3, VM program's
// Instruction.{a0,a1,a2}). Label/function-name arguments carry both the
// textual Name and, after the loader's second pass, the resolved
// instruction Target (spec.md §4.2.6).
type Arg struct {
	Kind     ArgKind
	Reg      int
	IntImm   int64
	FloatImm float64
	Name     string
	Target   int // resolved instruction index for label-valued args; -1 until resolved
}

// Instruction is one decoded KASM line: an opcode mnemonic plus up to
// three arguments.
type Instruction struct {
	Op   string
	Args []Arg
	Line int
}

// TypeLayout is one struct's member offset table (spec.md §4.2.5).
type TypeLayout struct {
	Name    string
	Members []string
	Offsets map[string]int
	Size    int
}

// Program is a fully loaded KASM unit: the flat instruction array, its
// resolved label table, and the struct layouts discovered from `type`
// blocks, per spec.md §3's VM program record. A layout is recorded for
// the run of newsv/newav lines that directly follows any label; KASM
// text does not mark which labels are types, so a function label whose
// first instruction is a newsv gets an entry as well.
type Program struct {
	Instructions []Instruction
	Labels       map[string]int
	Types        map[string]*TypeLayout

	// memberOffsets is a flat member-name -> byte-offset index built
	// from those same layouts (the first layout to declare a name wins),
	// used by adszr (spec.md §4.2.5's "enclosing type layout" is
	// resolved by member name alone — see DESIGN.md's struct member
	// offset decision).
	memberOffsets map[string]int
}

// scalarSize returns the storage size in bytes of a scalar base type
// name, per spec.md §4.2.5. Pointers and unrecognized (struct) base
// names are 8 bytes.
func scalarSize(base string) int {
	switch base {
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

func typeSize(typeName string) int {
	if strings.HasPrefix(typeName, "*") {
		return 8
	}
	return scalarSize(typeName)
}

// Load parses KASM text into a Program with every label resolved to a
// direct instruction index (spec.md §4.2.6's two-pass binding: labels
// are first recorded as indices during the scan below, then every
// label-valued Arg.Target is patched from that table in the second
// pass).
func Load(text string) (*Program, error) {
	p := &Program{
		Labels:        map[string]int{},
		Types:         map[string]*TypeLayout{},
		memberOffsets: map[string]int{},
	}

	var curType *TypeLayout
	var curOffset int

	lineNo := 0
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if !strings.HasPrefix(raw, "\t") {
			name := strings.TrimSuffix(strings.TrimSpace(raw), ":")
			if name == "" {
				continue
			}
			p.Labels[name] = len(p.Instructions)
			curType = &TypeLayout{Name: name, Offsets: map[string]int{}}
			curOffset = 0
			continue
		}

		inst, err := parseInstructionLine(raw[1:], lineNo)
		if err != nil {
			return nil, errors.Wrapf(err, "kasm: line %d", lineNo)
		}
		p.Instructions = append(p.Instructions, inst)

		switch inst.Op {
		case "newsv":
			if len(inst.Args) == 2 {
				typ, name := inst.Args[0].Name, inst.Args[1].Name
				sz := typeSize(typ)
				if curType != nil {
					curType.Members = append(curType.Members, name)
					curType.Offsets[name] = curOffset
					curOffset += sz
					curType.Size = curOffset
					p.Types[curType.Name] = curType
					if _, exists := p.memberOffsets[name]; !exists {
						p.memberOffsets[name] = curOffsetBefore(curOffset, sz)
					}
				}
			}
		case "newav":
			if len(inst.Args) == 3 {
				typ, name := inst.Args[0].Name, inst.Args[1].Name
				n := int(inst.Args[2].IntImm)
				sz := typeSize(typ) * n
				if curType != nil {
					curType.Members = append(curType.Members, name)
					curType.Offsets[name] = curOffset
					curOffset += sz
					curType.Size = curOffset
					p.Types[curType.Name] = curType
					if _, exists := p.memberOffsets[name]; !exists {
						p.memberOffsets[name] = curOffsetBefore(curOffset, sz)
					}
				}
			}
		default:
			curType = nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "kasm: reading program")
	}

	for i := range p.Instructions {
		inst := &p.Instructions[i]
		if !isJumpOpcode(inst.Op) {
			continue
		}
		for j := range inst.Args {
			a := &inst.Args[j]
			if a.Kind != ArgName {
				continue
			}
			target, ok := p.Labels[a.Name]
			if !ok {
				return nil, errors.Errorf("kasm: unresolved label %q (line %d)", a.Name, inst.Line)
			}
			a.Target = target
		}
	}

	return p, nil
}

func curOffsetBefore(after, sz int) int { return after - sz }

func isJumpOpcode(op string) bool {
	switch op {
	case "callf", "jmpeq", "jmpal":
		return true
	}
	return false
}

// MemberOffset resolves a member name to its byte offset, per spec.md
// §4.2.5.
func (p *Program) MemberOffset(member string) (int, bool) {
	off, ok := p.memberOffsets[member]
	return off, ok
}

// parseInstructionLine tokenizes one de-tabbed instruction line
// "opcode: arg1 arg2 arg3" using text/scanner, the same tokenizer the
// KASM loader leans on throughout (see DESIGN.md; contrast with the
// hand-rolled front-end lexer in internal/lexer).
func parseInstructionLine(body string, lineNo int) (Instruction, error) {
	var sc scanner.Scanner
	sc.Init(strings.NewReader(body))
	sc.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings
	sc.IsIdentRune = func(ch rune, i int) bool {
		return ch == '_' || ch == '.' || ch == '-' || ch == '*' ||
			('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ('0' <= ch && ch <= '9' && i > 0)
	}

	var words []string
	for tok := sc.Scan(); tok != scanner.EOF; tok = sc.Scan() {
		if tok == ':' {
			// The opcode's trailing colon scans as its own token.
			continue
		}
		words = append(words, sc.TokenText())
	}
	if len(words) == 0 {
		return Instruction{}, errors.New("empty instruction line")
	}

	op := strings.TrimSuffix(words[0], ":")
	inst := Instruction{Op: op, Line: lineNo}
	for _, w := range words[1:] {
		inst.Args = append(inst.Args, classifyArg(w))
	}
	return inst, nil
}

func classifyArg(w string) Arg {
	if len(w) > 1 && w[0] == 'r' {
		if n, err := strconv.Atoi(w[1:]); err == nil {
			return Arg{Kind: ArgReg, Reg: n, Target: -1}
		}
	}
	if strings.ContainsRune(w, '.') {
		if f, err := strconv.ParseFloat(w, 64); err == nil {
			return Arg{Kind: ArgFloatImm, FloatImm: f, Target: -1}
		}
	}
	if n, err := strconv.ParseInt(w, 10, 64); err == nil {
		return Arg{Kind: ArgIntImm, IntImm: n, Target: -1}
	}
	return Arg{Kind: ArgName, Name: w, Target: -1}
}
