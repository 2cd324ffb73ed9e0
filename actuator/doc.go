// Package actuator executes instructions on the CPU and choreographs their
// animation.
//
// Each supported opcode pairs a data function, which mutates the CPU, with
// an animation function, which describes the element moves of the same
// operation from the register values before the mutation. Execute places
// the operands on staging rows and wires both into the phases of an fsm.Fsm.
package actuator
