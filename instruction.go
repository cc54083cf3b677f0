package st7735

import "fmt"

// Instruction is a ST7735 command opcode.
//
// The set is closed: only the constants below are ever sent to the
// controller.
type Instruction byte

// Instructions from the ST7735 datasheet, section 10.
const (
	NOP     Instruction = 0x00
	SWRESET Instruction = 0x01
	RDDID   Instruction = 0x04
	RDDST   Instruction = 0x09
	SLPIN   Instruction = 0x10
	SLPOUT  Instruction = 0x11
	PTLON   Instruction = 0x12
	NORON   Instruction = 0x13
	INVOFF  Instruction = 0x20
	INVON   Instruction = 0x21
	DISPOFF Instruction = 0x28
	DISPON  Instruction = 0x29
	CASET   Instruction = 0x2A
	RASET   Instruction = 0x2B
	RAMWR   Instruction = 0x2C
	RAMRD   Instruction = 0x2E
	PTLAR   Instruction = 0x30
	COLMOD  Instruction = 0x3A
	MADCTL  Instruction = 0x36
	FRMCTR1 Instruction = 0xB1
	FRMCTR2 Instruction = 0xB2
	FRMCTR3 Instruction = 0xB3
	INVCTR  Instruction = 0xB4
	DISSET5 Instruction = 0xB6
	PWCTR1  Instruction = 0xC0
	PWCTR2  Instruction = 0xC1
	PWCTR3  Instruction = 0xC2
	PWCTR4  Instruction = 0xC3
	PWCTR5  Instruction = 0xC4
	VMCTR1  Instruction = 0xC5
	RDID1   Instruction = 0xDA
	RDID2   Instruction = 0xDB
	RDID3   Instruction = 0xDC
	RDID4   Instruction = 0xDD
	PWCTR6  Instruction = 0xFC
	GMCTRP1 Instruction = 0xE0
	GMCTRN1 Instruction = 0xE1
)

var instructionNames = map[Instruction]string{
	NOP:     "NOP",
	SWRESET: "SWRESET",
	RDDID:   "RDDID",
	RDDST:   "RDDST",
	SLPIN:   "SLPIN",
	SLPOUT:  "SLPOUT",
	PTLON:   "PTLON",
	NORON:   "NORON",
	INVOFF:  "INVOFF",
	INVON:   "INVON",
	DISPOFF: "DISPOFF",
	DISPON:  "DISPON",
	CASET:   "CASET",
	RASET:   "RASET",
	RAMWR:   "RAMWR",
	RAMRD:   "RAMRD",
	PTLAR:   "PTLAR",
	COLMOD:  "COLMOD",
	MADCTL:  "MADCTL",
	FRMCTR1: "FRMCTR1",
	FRMCTR2: "FRMCTR2",
	FRMCTR3: "FRMCTR3",
	INVCTR:  "INVCTR",
	DISSET5: "DISSET5",
	PWCTR1:  "PWCTR1",
	PWCTR2:  "PWCTR2",
	PWCTR3:  "PWCTR3",
	PWCTR4:  "PWCTR4",
	PWCTR5:  "PWCTR5",
	VMCTR1:  "VMCTR1",
	RDID1:   "RDID1",
	RDID2:   "RDID2",
	RDID3:   "RDID3",
	RDID4:   "RDID4",
	PWCTR6:  "PWCTR6",
	GMCTRP1: "GMCTRP1",
	GMCTRN1: "GMCTRN1",
}

// Valid reports whether i is a known opcode.
func (i Instruction) Valid() bool {
	_, ok := instructionNames[i]
	return ok
}

func (i Instruction) String() string {
	if n, ok := instructionNames[i]; ok {
		return n
	}
	return fmt.Sprintf("Instruction(0x%02X)", byte(i))
}
