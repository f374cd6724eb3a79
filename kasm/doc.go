// Package kasm implements both halves of the assembler: lowering a
// parsed KAPPA tree to KASM text (Compile) and loading KASM text back
// into a resolved instruction array (Load), per spec.md §4.1 and §6.
//
// KASM syntax
//
// KASM is line-oriented. A label declaration is any line whose first
// character is not a tab:
//
//	add:
//		newsv: s64 a
//		newsv: s64 b
//		...
//		leave:
//
// An instruction line begins with exactly one tab, then an opcode
// followed by a colon, then space-separated arguments. Register
// arguments are written r<digits> (r0, r1, ...). Integer immediates
// are plain decimals; float immediates carry a decimal point.
// Everything else (variable names, label names, type names, struct
// member names) is a bare word.
//
// The full opcode set:
//
//	pushr poprr newsv newav leave
//	movrn movrf movrr callf
//	loadr saver refsv deref savea adszr
//	addrr subrr mulrr divrr modrr
//	lesrr grerr leqrr geqrr equrr nequrr andrr orrr
//	negrr cmprd jmpeq jmpal
//
// See package vm for their runtime semantics.
package kasm
