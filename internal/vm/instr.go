package vm

import "fmt"

// Instruction is a 16-bit CPU instruction word. The top four bits are the
// opcode; the remaining bits are opcode-specific fields.
type Instruction Word

func (i Instruction) String() string {
	return fmt.Sprintf("%s (OP: %s)", Word(i), i.Opcode())
}

// Opcode returns the instruction's opcode, the top four bits of the word.
func (i Instruction) Opcode() Opcode {
	return Opcode(i & 0xf000 >> 12)
}

// DR returns the destination register field, bits [11:9].
func (i Instruction) DR() GPR { return GPR(i & 0x0e00 >> 9) }

// SR returns the store source-register field, bits [11:9] (ST, STI, STR).
func (i Instruction) SR() GPR { return GPR(i & 0x0e00 >> 9) }

// SR1 returns the first source-register field, bits [8:6] (ADD, AND, NOT).
func (i Instruction) SR1() GPR { return GPR(i & 0x01c0 >> 6) }

// SR2 returns the second source-register field, bits [2:0].
func (i Instruction) SR2() GPR { return GPR(i & 0x0007) }

// BaseR returns the base-register field, bits [8:6] (LDR, STR, JMP, JSRR).
func (i Instruction) BaseR() GPR { return GPR(i & 0x01c0 >> 6) }

// Imm reports whether the immediate-mode bit, bit [5], is set (ADD, AND).
func (i Instruction) Imm() bool { return i&0x0020 != 0 }

// LongMode reports whether the offset-mode bit, bit [11], is set (JSR).
func (i Instruction) LongMode() bool { return i&0x0800 != 0 }

// Imm5 returns the sign-extended 5-bit immediate, bits [4:0].
func (i Instruction) Imm5() Word {
	return Word(i & 0x001f).SignExtend(5)
}

// Offset6 returns the sign-extended 6-bit base offset, bits [5:0].
func (i Instruction) Offset6() Word {
	return Word(i & 0x003f).SignExtend(6)
}

// PCOffset9 returns the sign-extended 9-bit PC offset, bits [8:0].
func (i Instruction) PCOffset9() Word {
	return Word(i & 0x01ff).SignExtend(9)
}

// PCOffset11 returns the sign-extended 11-bit PC offset, bits [10:0].
func (i Instruction) PCOffset11() Word {
	return Word(i & 0x07ff).SignExtend(11)
}

// NZP returns the branch condition mask, bits [11:9].
func (i Instruction) NZP() Condition {
	return Condition(i & 0x0e00 >> 9)
}

// TrapVect returns the zero-extended 8-bit trap vector, bits [7:0].
func (i Instruction) TrapVect() Word {
	return Word(i & 0x00ff)
}

// NewInstruction assembles an instruction word from an opcode and the
// remaining 12 bits of operand fields. It exists mainly for tests, which
// need to synthesize instruction-shaped constants.
func NewInstruction(op Opcode, operand Word) Instruction {
	return Instruction(Word(op)<<12 | operand&0x0fff)
}
