package vm

// machine.go assembles the simulated CPU from its smaller parts.

import (
	"fmt"
	"io"
	"os"

	"github.com/moynihan/lc3/internal/log"
)

// UserSpaceAddr is the address at which user programs start execution and
// at which the fetch/decode/execute loop's program counter is initialized.
const UserSpaceAddr Word = 0x3000

// ErrHalted unwinds Run when the HALT trap has executed.
var ErrHalted = fmt.Errorf("vm: halted")

// LC3 is a computer simulated in software: the registers, program counter,
// condition flags, and memory of an LC-3.
type LC3 struct {
	Reg  RegisterFile // General-purpose registers.
	PC   Word         // Program counter: address of the next instruction.
	COND Condition    // Condition flags.
	Mem  *Memory      // Address space, including the keyboard device.

	out io.Writer
	log *log.Logger
}

// OptionFn configures a machine at construction time.
type OptionFn func(*LC3)

// WithLogger overrides the machine's logger.
func WithLogger(logger *log.Logger) OptionFn {
	return func(vm *LC3) { vm.log = logger }
}

// WithOutput overrides the writer trap handlers emit characters to. It
// defaults to os.Stdout.
func WithOutput(out io.Writer) OptionFn {
	return func(vm *LC3) { vm.out = out }
}

// WithKeyboard overrides the device polled by reads of KBSR/KBDR. It
// defaults to a keyboard that is never ready.
func WithKeyboard(kbd Keyboard) OptionFn {
	return func(vm *LC3) { vm.Mem = NewMemory(kbd) }
}

// New creates and initializes a virtual machine: registers are zeroed, PC is
// set to UserSpaceAddr, and memory is empty until LoadImage populates it.
func New(opts ...OptionFn) *LC3 {
	vm := &LC3{
		PC:  UserSpaceAddr,
		Mem: NewMemory(nil),
		out: os.Stdout,
		log: log.DefaultLogger(),
	}

	for _, fn := range opts {
		fn(vm)
	}

	return vm
}

func (vm *LC3) String() string {
	return fmt.Sprintf("PC: %s COND: %s\n%s", Word(vm.PC), vm.COND, vm.Reg)
}
