package vm

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

// flushBuffer wraps a bytes.Buffer behind bufio.Writer so trap output
// exercises the same Flush path cmd/lc3 wires up around os.Stdout.
type flushBuffer struct {
	buf *bytes.Buffer
	*bufio.Writer
}

func newFlushBuffer() *flushBuffer {
	buf := &bytes.Buffer{}
	return &flushBuffer{buf: buf, Writer: bufio.NewWriter(buf)}
}

func (f *flushBuffer) String() string { return f.buf.String() }

// TestS1HelloViaPUTS runs a tiny program that loads a string address, calls
// PUTS to print it, and halts.
func TestS1HelloViaPUTS(tt *testing.T) {
	tt.Parallel()

	out := newFlushBuffer()
	vm := New(WithOutput(out))
	vm.PC = 0x3000

	// LEA R0, #2 ; PUTS ; HALT ; "Hello"0 -- the offset targets the address
	// immediately following HALT, where the string is placed.
	vm.Mem.Write(0x3000, Word(NewInstruction(LEA, 0x0002)))
	vm.Mem.Write(0x3001, Word(NewInstruction(TRAP, TrapPUTS)))
	vm.Mem.Write(0x3002, Word(NewInstruction(TRAP, TrapHALT)))

	msg := "Hello"
	for i, c := range msg {
		vm.Mem.Write(0x3003+Word(i), Word(c))
	}

	vm.Mem.Write(0x3003+Word(len(msg)), 0x0000)

	if err := vm.Run(); err != nil {
		tt.Fatal(err)
	}

	if got, want := out.String(), "Hello\nHALT\n"; got != want {
		tt.Errorf("output = %q, want %q", got, want)
	}
}

// TestS2AddAndBranch adds then subtracts one from R0, branches on the
// resulting zero condition, and checks that the second HALT (not the first)
// runs.
func TestS2AddAndBranch(tt *testing.T) {
	tt.Parallel()

	out := newFlushBuffer()
	vm := New(WithOutput(out))
	vm.PC = 0x3000

	vm.Mem.Write(0x3000, Word(NewInstruction(ADD, 0x0020|0x0001))) // ADD R0,R0,#1
	vm.Mem.Write(0x3001, Word(NewInstruction(ADD, 0x0020|0x001f))) // ADD R0,R0,#-1
	vm.Mem.Write(0x3002, Word(NewInstruction(BR, Word(ConditionZero)<<9|0x0001)))
	vm.Mem.Write(0x3003, Word(NewInstruction(TRAP, TrapHALT)))
	vm.Mem.Write(0x3004, Word(NewInstruction(TRAP, TrapHALT)))

	if err := vm.Run(); err != nil {
		tt.Fatal(err)
	}

	if got, want := out.String(), "HALT\n"; got != want {
		tt.Errorf("output = %q, want %q", got, want)
	}

	if vm.PC != 0x3005 {
		tt.Errorf("PC = %s, want 0x3005 (second HALT executed)", Word(vm.PC))
	}
}

// TestS5OddLengthPUTSP checks that PUTSP stops at an odd-length string's
// final high byte of 0 instead of printing a trailing NUL character.
func TestS5OddLengthPUTSP(tt *testing.T) {
	tt.Parallel()

	out := newFlushBuffer()
	vm := New(WithOutput(out))
	vm.Reg[R0] = 0x4000

	vm.Mem.Write(0x4000, Word('A')|Word('B')<<8)
	vm.Mem.Write(0x4001, Word('C')|0<<8)
	vm.Mem.Write(0x4002, 0x0000)

	if err := vm.trapPUTSP(); err != nil {
		tt.Fatal(err)
	}

	if err := out.Flush(); err != nil {
		tt.Fatal(err)
	}

	if got, want := out.String(), "ABC"; got != want {
		tt.Errorf("output = %q, want %q", got, want)
	}
}

// TestS6JSRAndReturn calls a subroutine that adds five to R0 and returns via
// JMP R7, skipping a HALT instruction placed in between the call site and the
// subroutine body.
func TestS6JSRAndReturn(tt *testing.T) {
	tt.Parallel()

	out := newFlushBuffer()
	vm := New(WithOutput(out))
	vm.PC = 0x3000

	// JSR to the subroutine at 0x3002, skipping over the HALT at 0x3001.
	vm.Mem.Write(0x3000, Word(NewInstruction(JSR, 1<<11|0x0001)))
	vm.Mem.Write(0x3001, Word(NewInstruction(TRAP, TrapHALT)))
	vm.Mem.Write(0x3002, Word(NewInstruction(ADD, 0x0020|0x0005))) // ADD R0,R0,#5
	vm.Mem.Write(0x3003, Word(NewInstruction(JMP, Word(R7)<<6)))   // RET

	if err := vm.Run(); err != nil {
		tt.Fatal(err)
	}

	if vm.Reg[R0] != 5 {
		tt.Errorf("R0 = %s, want 5", vm.Reg[R0])
	}

	if got, want := out.String(), "HALT\n"; got != want {
		tt.Errorf("output = %q, want %q", got, want)
	}
}

// TestTrapOUT checks that OUT writes the low byte of R0 and flushes it
// through to the buffer without the test calling Flush itself.
func TestTrapOUT(tt *testing.T) {
	tt.Parallel()

	out := newFlushBuffer()
	vm := New(WithOutput(out))
	vm.Reg[R0] = Register('!')

	if err := vm.trapOUT(); err != nil {
		tt.Fatal(err)
	}

	if got, want := out.String(), "!"; got != want {
		tt.Errorf("output = %q, want %q", got, want)
	}
}

func TestTrapGETCAndIN(tt *testing.T) {
	tt.Parallel()

	out := newFlushBuffer()
	kbd := &fakeKeyboard{queue: []byte{'q'}}
	vm := New(WithOutput(out), WithKeyboard(kbd))

	if err := vm.trapGETC(); err != nil {
		tt.Fatal(err)
	}

	if vm.Reg[R0] != Register('q') {
		tt.Errorf("R0 = %s, want 'q'", vm.Reg[R0])
	}

	kbd.queue = []byte{'z'}

	if err := vm.trapIN(); err != nil {
		tt.Fatal(err)
	}

	if vm.Reg[R0] != Register('z') {
		tt.Errorf("R0 = %s, want 'z'", vm.Reg[R0])
	}

	if !strings.Contains(out.String(), "Enter a character: z") {
		tt.Errorf("output = %q, want prompt followed by echoed char", out.String())
	}
}
