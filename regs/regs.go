// Package regs provides access to a window of memory-mapped peripheral
// registers, either simulated (Sim) or mapped from a memory device (Mem).
package regs

// File is a register file. Addresses are physical bus addresses; accesses
// must be naturally aligned for their width.
type File interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, val uint8)
	Write16(addr uint32, val uint16)
	Write32(addr uint32, val uint32)
}

// Reg32 is a handle on one 32-bit register.
type Reg32 struct {
	F    File
	Addr uint32
}

func (r Reg32) Get() uint32 {
	return r.F.Read32(r.Addr)
}

func (r Reg32) Set(val uint32) {
	r.F.Write32(r.Addr, val)
}

func (r Reg32) SetBits(mask uint32) {
	r.Set(r.Get() | mask)
}

func (r Reg32) ClearBits(mask uint32) {
	r.Set(r.Get() &^ mask)
}

func (r Reg32) HasBits(mask uint32) bool {
	return r.Get()&mask != 0
}

// ReplaceBits replaces the field mask<<pos with value<<pos.
func (r Reg32) ReplaceBits(value uint32, mask uint32, pos uint8) {
	r.Set(r.Get()&^(mask<<pos) | (value&mask)<<pos)
}

// Field returns the field (reg>>pos)&mask.
func (r Reg32) Field(mask uint32, pos uint8) uint32 {
	return (r.Get() >> pos) & mask
}

type Reg16 struct {
	F    File
	Addr uint32
}

func (r Reg16) Get() uint16 {
	return r.F.Read16(r.Addr)
}

func (r Reg16) Set(val uint16) {
	r.F.Write16(r.Addr, val)
}

func (r Reg16) SetBits(mask uint16) {
	r.Set(r.Get() | mask)
}

func (r Reg16) ClearBits(mask uint16) {
	r.Set(r.Get() &^ mask)
}

func (r Reg16) HasBits(mask uint16) bool {
	return r.Get()&mask != 0
}

type Reg8 struct {
	F    File
	Addr uint32
}

func (r Reg8) Get() uint8 {
	return r.F.Read8(r.Addr)
}

func (r Reg8) Set(val uint8) {
	r.F.Write8(r.Addr, val)
}

func (r Reg8) SetBits(mask uint8) {
	r.Set(r.Get() | mask)
}

func (r Reg8) ClearBits(mask uint8) {
	r.Set(r.Get() &^ mask)
}

func (r Reg8) HasBits(mask uint8) bool {
	return r.Get()&mask != 0
}

// ReplaceBits replaces the field mask<<pos with value<<pos.
func (r Reg8) ReplaceBits(value uint8, mask uint8, pos uint8) {
	r.Set(r.Get()&^(mask<<pos) | (value&mask)<<pos)
}
