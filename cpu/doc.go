// Package cpu implements the x86 register file, memory and instruction parser
// that the SIMD visualizer animates.
//
// The register file holds sixteen 64-bit general-purpose registers addressable
// through their 32/16/8-bit and high-byte views, sixteen 512-bit vector
// registers addressable as XMM, YMM or ZMM, and the RFLAGS register. Vector
// registers are read and written "by sections": a register is split into
// equally sized unsigned lanes.
//
// The assembler parses single instruction lines and whole listings, supporting
// equates and compile-time $(...) expressions evaluated with Starlark. Memory
// operand address expressions may reference general-purpose registers.
//
// All state is guarded by the mutex embedded in Cpu. Callers hold the lock for
// the duration of one read or write burst.
package cpu
