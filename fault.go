package layoutrt

import "fmt"

// Fault is the panic value raised when the interpreter encounters a
// layout string it cannot execute: an opcode outside the dispatch table's
// range, a read past the end of the byte stream, or an opcode (Custom,
// Generic) whose operand contract is unspecified. Per §7, layout strings
// are compiler-generated and assumed well-formed; a corrupted one is
// undefined behavior, and this panic is the interpreter's only defensive
// hatch; it is never recovered on the hot path.
type Fault struct {
	Op     string
	Detail string
}

func (f Fault) Error() string {
	return fmt.Sprintf("layoutrt: %s: %s", f.Op, f.Detail)
}

// Raise panics with a Fault built from op and detail.
func Raise(op, detail string, args ...any) {
	panic(Fault{Op: op, Detail: fmt.Sprintf(detail, args...)})
}
