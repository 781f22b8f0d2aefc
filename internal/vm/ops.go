package vm

// ops.go defines the CPU operations and their semantics. PC has already been
// incremented past the current instruction by the time a handler runs, so
// every PC-relative offset is added to the address of the *next*
// instruction, per the ISA.

import "fmt"

// Opcode identifies the operation encoded in the top four bits of an
// instruction word.
type Opcode uint16

// Opcode constants, matching the LC-3 ISA's bit [15:12] encoding.
const (
	BR Opcode = iota
	ADD
	LD
	ST
	JSR // Also encodes JSRR, distinguished by Instruction.LongMode.
	AND
	LDR
	STR
	RTI // Reserved: privileged return-from-interrupt.
	NOT
	LDI
	STI
	JMP // Also encodes RET, the special case BaseR == R7.
	RES // Reserved.
	LEA
	TRAP
)

func (op Opcode) String() string {
	names := [...]string{
		"BR", "ADD", "LD", "ST", "JSR", "AND", "LDR", "STR",
		"RTI", "NOT", "LDI", "STI", "JMP", "RES", "LEA", "TRAP",
	}

	if int(op) < len(names) {
		return names[op]
	}

	return fmt.Sprintf("OP(%d)", op)
}

// ErrReserved is returned by Step when the instruction stream contains RTI
// or RES. Both opcodes are reserved by the architecture and left unspecified
// on a user-mode-only machine, so this implementation treats executing
// either as a fatal condition instead of silently falling through to a
// neighboring handler.
var ErrReserved = fmt.Errorf("vm: reserved opcode")

// execute dispatches ir to the handler for its opcode and mutates vm
// accordingly. It returns ErrReserved for RTI/RES and ErrHalted once the
// HALT trap has run.
func (vm *LC3) execute(ir Instruction) error {
	switch ir.Opcode() {
	case BR:
		vm.execBR(ir)
	case ADD:
		vm.execADD(ir)
	case LD:
		vm.execLD(ir)
	case ST:
		vm.execST(ir)
	case JSR:
		vm.execJSR(ir)
	case AND:
		vm.execAND(ir)
	case LDR:
		vm.execLDR(ir)
	case STR:
		vm.execSTR(ir)
	case NOT:
		vm.execNOT(ir)
	case LDI:
		vm.execLDI(ir)
	case STI:
		vm.execSTI(ir)
	case JMP:
		vm.execJMP(ir)
	case LEA:
		vm.execLEA(ir)
	case TRAP:
		return vm.execTRAP(ir)
	case RTI, RES:
		return fmt.Errorf("%w: %s", ErrReserved, ir)
	}

	return nil
}

// execBR: conditional branch. Adds PCoffset9 to PC if the branch mask
// intersects the condition flags. Never sets CC.
func (vm *LC3) execBR(ir Instruction) {
	if vm.COND.Any(ir.NZP()) {
		vm.PC += ir.PCOffset9()
	}
}

// execADD: DR = SR1 + SR2, or DR = SR1 + imm5 in immediate mode. Modulo
// 2^16. Sets CC on DR.
func (vm *LC3) execADD(ir Instruction) {
	sr1 := vm.Reg[ir.SR1()]

	var result Register

	if ir.Imm() {
		result = sr1 + Register(ir.Imm5())
	} else {
		result = sr1 + vm.Reg[ir.SR2()]
	}

	vm.Reg[ir.DR()] = result
	vm.COND = SetCC(result)
}

// execAND: like ADD, but bitwise AND. Sets CC on DR.
func (vm *LC3) execAND(ir Instruction) {
	sr1 := vm.Reg[ir.SR1()]

	var result Register

	if ir.Imm() {
		result = sr1 & Register(ir.Imm5())
	} else {
		result = sr1 & vm.Reg[ir.SR2()]
	}

	vm.Reg[ir.DR()] = result
	vm.COND = SetCC(result)
}

// execNOT: DR = ~SR, with SR in bits [8:6]. Sets CC on DR.
func (vm *LC3) execNOT(ir Instruction) {
	result := vm.Reg[ir.SR1()] ^ 0xffff
	vm.Reg[ir.DR()] = result
	vm.COND = SetCC(result)
}

// execLD: DR = mem[PC + PCoffset9]. Sets CC.
func (vm *LC3) execLD(ir Instruction) {
	addr := vm.PC + ir.PCOffset9()
	result := Register(vm.Mem.Read(addr))
	vm.Reg[ir.DR()] = result
	vm.COND = SetCC(result)
}

// execLDI: DR = mem[mem[PC + PCoffset9]]. Sets CC.
func (vm *LC3) execLDI(ir Instruction) {
	ptr := vm.Mem.Read(vm.PC + ir.PCOffset9())
	result := Register(vm.Mem.Read(ptr))
	vm.Reg[ir.DR()] = result
	vm.COND = SetCC(result)
}

// execLDR: DR = mem[BaseR + offset6]. Sets CC.
func (vm *LC3) execLDR(ir Instruction) {
	addr := Word(vm.Reg[ir.BaseR()]) + ir.Offset6()
	result := Register(vm.Mem.Read(addr))
	vm.Reg[ir.DR()] = result
	vm.COND = SetCC(result)
}

// execLEA: DR = PC + PCoffset9. Sets CC, per the original LC-3 ISA (a later
// revision of the architecture drops this CC update; this emulator
// implements the original behavior).
func (vm *LC3) execLEA(ir Instruction) {
	result := Register(vm.PC + ir.PCOffset9())
	vm.Reg[ir.DR()] = result
	vm.COND = SetCC(result)
}

// execST: mem[PC + PCoffset9] = SR. No CC.
func (vm *LC3) execST(ir Instruction) {
	addr := vm.PC + ir.PCOffset9()
	vm.Mem.Write(addr, Word(vm.Reg[ir.SR()]))
}

// execSTI: mem[mem[PC + PCoffset9]] = SR. No CC.
func (vm *LC3) execSTI(ir Instruction) {
	ptr := vm.Mem.Read(vm.PC + ir.PCOffset9())
	vm.Mem.Write(ptr, Word(vm.Reg[ir.SR()]))
}

// execSTR: mem[BaseR + offset6] = SR. No CC.
func (vm *LC3) execSTR(ir Instruction) {
	addr := Word(vm.Reg[ir.BaseR()]) + ir.Offset6()
	vm.Mem.Write(addr, Word(vm.Reg[ir.SR()]))
}

// execJMP: PC = BaseR. RET is the special case BaseR == R7. No CC.
func (vm *LC3) execJMP(ir Instruction) {
	vm.PC = Word(vm.Reg[ir.BaseR()])
}

// execJSR / JSRR: BaseR is read before R7 is overwritten with the return
// address (which is saved unconditionally), so that JSRR R7 jumps to the
// *old* R7. Then PC is set from PCoffset11 (JSR) or the saved BaseR value
// (JSRR), depending on the long-mode bit. No CC.
func (vm *LC3) execJSR(ir Instruction) {
	base := vm.Reg[ir.BaseR()]
	vm.Reg[R7] = Register(vm.PC)

	if ir.LongMode() {
		vm.PC += ir.PCOffset11()
	} else {
		vm.PC = Word(base)
	}
}
