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

// Runtime error taxonomy (spec.md §7):
//
//	unresolved_label  callf/jmpeq/jmpal to a name kasm.Load couldn't bind
//	unknown_local     loadr/saver/refsv/adszr on an undeclared name
//	stack_underflow   poprr with sp already at the top of memory
//	stack_overflow    pushr/newsv/newav would push sp below zero
//	illegal_address   deref/savea/loadr outside [0, len(Memory))
//	divide_by_zero    divrr/modrr with a zero right-hand side (integer or float)
//
// A Frame's stack and its locals share the same downward-growing
// region of an Instance's flat Memory (spec.md §4.2.1): newsv/newav
// just reserve space the same way pushr does, so a function with many
// locals and a deep pushr/poprr call sequence can still overflow the
// same way a deeply recursive call chain can.
