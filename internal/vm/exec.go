package vm

// exec.go defines the CPU's fetch/decode/execute cycle.

import (
	"errors"
	"fmt"
)

// Step fetches, decodes, and executes a single instruction. It returns
// ErrHalted after HALT has run, and ErrReserved if the instruction is RTI
// or RES.
func (vm *LC3) Step() error {
	ir := Instruction(vm.Mem.Read(vm.PC))
	vm.PC++

	vm.log.Debug("fetched", "PC", Word(vm.PC-1), "IR", ir)

	if err := vm.execute(ir); err != nil {
		return err
	}

	vm.log.Debug("executed", "OP", ir.Opcode(), "state", vm.String())

	return nil
}

// Run executes instructions until the program halts (TrapHALT), hits a
// reserved opcode, or a trap reports a host I/O error. A HALT is not
// itself an error: Run returns nil in that case.
func (vm *LC3) Run() error {
	vm.log.Info("starting machine", "PC", Word(vm.PC))

	for {
		err := vm.Step()

		switch {
		case err == nil:
			continue
		case errors.Is(err, ErrHalted):
			vm.log.Info("halted")
			return nil
		default:
			vm.log.Error("stopped", "err", err)
			return fmt.Errorf("vm: run: %w", err)
		}
	}
}
