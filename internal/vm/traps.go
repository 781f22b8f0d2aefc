package vm

// traps.go implements the six trap service routines. Each trap runs
// synchronously: R7 already holds the return address (PC, past the TRAP
// instruction) by the time the handler is invoked. Traps never set
// condition codes.

import "fmt"

// Trap vectors, the low byte of a TRAP instruction.
const (
	TrapGETC  Word = 0x20 // Read one character, unechoed, into R0.
	TrapOUT   Word = 0x21 // Write the character in R0 to the console.
	TrapPUTS  Word = 0x22 // Write a NUL-terminated string at R0.
	TrapIN    Word = 0x23 // Prompt, read and echo one character into R0.
	TrapPUTSP Word = 0x24 // Write a packed (two chars/word) string at R0.
	TrapHALT  Word = 0x25 // Halt the machine.
)

// execTRAP dispatches on the instruction's trap vector and returns
// ErrHalted once TrapHALT has run.
func (vm *LC3) execTRAP(ir Instruction) error {
	vm.Reg[R7] = Register(vm.PC)

	switch vect := ir.TrapVect(); vect {
	case TrapGETC:
		return vm.trapGETC()
	case TrapOUT:
		return vm.trapOUT()
	case TrapPUTS:
		return vm.trapPUTS()
	case TrapIN:
		return vm.trapIN()
	case TrapPUTSP:
		return vm.trapPUTSP()
	case TrapHALT:
		return vm.trapHALT()
	default:
		return fmt.Errorf("vm: undefined trap vector %s", vect)
	}
}

// trapGETC reads exactly one byte from the console, blocking, without
// echoing it, and stores it zero-extended in R0.
func (vm *LC3) trapGETC() error {
	b, err := vm.kbdReadByte()
	if err != nil {
		return fmt.Errorf("trap: getc: %w", err)
	}

	vm.Reg[R0] = Register(b) & 0x00ff

	return nil
}

// trapOUT writes the low byte of R0 to standard output and flushes it.
func (vm *LC3) trapOUT() error {
	if err := vm.emit(byte(vm.Reg[R0] & 0x00ff)); err != nil {
		return fmt.Errorf("trap: out: %w", err)
	}

	return vm.flush()
}

// trapPUTS writes the low byte of each word starting at R0 as an ASCII
// character, stopping at the first word equal to 0x0000.
func (vm *LC3) trapPUTS() error {
	for addr := Word(vm.Reg[R0]); ; addr++ {
		w := vm.Mem.Read(addr)
		if w == 0x0000 {
			break
		}

		if err := vm.emit(byte(w & 0x00ff)); err != nil {
			return fmt.Errorf("trap: puts: %w", err)
		}
	}

	return vm.flush()
}

// trapIN prompts, reads and echoes one character, and stores it
// zero-extended in R0.
func (vm *LC3) trapIN() error {
	if _, err := fmt.Fprint(vm.out, "Enter a character: "); err != nil {
		return fmt.Errorf("trap: in: %w", err)
	}

	b, err := vm.kbdReadByte()
	if err != nil {
		return fmt.Errorf("trap: in: %w", err)
	}

	if err := vm.emit(b); err != nil {
		return fmt.Errorf("trap: in: %w", err)
	}

	vm.Reg[R0] = Register(b) & 0x00ff

	return vm.flush()
}

// trapPUTSP writes two packed characters per word, low byte first, then
// the high byte if it is non-zero, stopping at the first word equal to
// 0x0000. A final odd character is encoded as 0x00 in the high byte.
func (vm *LC3) trapPUTSP() error {
	for addr := Word(vm.Reg[R0]); ; addr++ {
		w := vm.Mem.Read(addr)
		if w == 0x0000 {
			break
		}

		lo := byte(w & 0x00ff)
		hi := byte(w >> 8)

		if err := vm.emit(lo); err != nil {
			return fmt.Errorf("trap: putsp: %w", err)
		}

		if hi != 0 {
			if err := vm.emit(hi); err != nil {
				return fmt.Errorf("trap: putsp: %w", err)
			}
		}
	}

	return vm.flush()
}

// trapHALT writes "HALT\n", flushes, and signals Run to stop.
func (vm *LC3) trapHALT() error {
	if _, err := fmt.Fprint(vm.out, "HALT\n"); err != nil {
		return fmt.Errorf("trap: halt: %w", err)
	}

	if err := vm.flush(); err != nil {
		return err
	}

	return ErrHalted
}

// kbdReadByte performs a blocking read of one byte from the keyboard
// device, independent of the non-blocking KBSR/KBDR memory protocol.
func (vm *LC3) kbdReadByte() (byte, error) {
	if vm.Mem.kbd == nil {
		return 0, fmt.Errorf("vm: no keyboard device attached")
	}

	return vm.Mem.kbd.ReadByte()
}

// emit writes a single character to the trap output stream.
func (vm *LC3) emit(b byte) error {
	_, err := vm.out.Write([]byte{b})
	return err
}

// flush flushes the trap output stream, if it supports flushing.
func (vm *LC3) flush() error {
	if f, ok := vm.out.(interface{ Flush() error }); ok {
		return f.Flush()
	}

	return nil
}
