// Package samd brings up the clock tree of SAM L22 microcontrollers:
// oscillators, generic clock generators, the DFLL48M and DPLL96M, peripheral
// clock channels, the external interrupt controller and timer clock gating.
//
// All state lives in the chip's registers. Nothing is cached; every query
// reads the register file again.
package samd

import (
	"fmt"
	"sync"

	"github.com/Jon-Bright/samclk/regs"
)

// Kind selects the part of the clock tree a query refers to.
type Kind uint8

const (
	Oscillator Kind = 0 // index is a GCLK_SOURCE_* value
	Channel    Kind = 1 // index is a peripheral channel (PCHCTRL) ID
	System     Kind = 2 // index is one of the SYSTEM_* clocks
)

// Derived system clocks.
const (
	SYSTEM_TICK = 0
	SYSTEM_CPU  = 1
	SYSTEM_RTC  = 2
)

func (k Kind) String() string {
	switch k {
	case Oscillator:
		return "osc"
	case Channel:
		return "channel"
	case System:
		return "system"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Variant describes the chip features that change the access protocol.
type Variant struct {
	Name string
	// HasDPLL brings up the DPLL96M during Init and feeds the core from it.
	HasDPLL bool
	// GenSync means GENCTRL writes synchronise through GCLK SYNCBUSY.
	GenSync bool
	// ChannelSync means PCHCTRL writes need a wait for SYNCBUSY to clear.
	ChannelSync bool
}

var SAML22 = Variant{
	Name:        "saml22",
	HasDPLL:     true,
	GenSync:     true,
	ChannelSync: true,
}

// Clocks manages the clock tree of one chip. It must be the only writer of
// the clock registers; its methods serialise on an internal lock.
type Clocks struct {
	mu   sync.Mutex
	r    regs.File
	poll *regs.Poller
	v    Variant

	// DynamicClocks, if set, runs at the end of Init once the static
	// generators are up. It is called without the lock held.
	DynamicClocks func(c *Clocks) error
}

// New returns a manager for the registers in r. A nil poller waits forever.
func New(r regs.File, v Variant, poll *regs.Poller) *Clocks {
	return &Clocks{r: r, v: v, poll: poll}
}

func (c *Clocks) Variant() Variant {
	return c.v
}

func (c *Clocks) reg32(addr uint32) regs.Reg32 {
	return regs.Reg32{F: c.r, Addr: addr}
}

func (c *Clocks) reg16(addr uint32) regs.Reg16 {
	return regs.Reg16{F: c.r, Addr: addr}
}

func (c *Clocks) reg8(addr uint32) regs.Reg8 {
	return regs.Reg8{F: c.r, Addr: addr}
}

func (c *Clocks) genctrl(g uint8) regs.Reg32 {
	return c.reg32(GCLK_BASE + GCLK_GENCTRL + 4*uint32(g))
}

func (c *Clocks) pchctrl(p uint8) regs.Reg32 {
	return c.reg32(GCLK_BASE + GCLK_PCHCTRL + 4*uint32(p))
}

func (c *Clocks) gclkSyncbusy() regs.Reg32 {
	return c.reg32(GCLK_BASE + GCLK_SYNCBUSY)
}

// genSync waits for generator g's GENCTRL write to synchronise.
func (c *Clocks) genSync(g uint8) error {
	if !c.v.GenSync {
		return nil
	}
	mask := uint32(1) << (GCLK_SYNCBUSY_GENCTRL_Pos + uint32(g))
	return c.poll.Until(func() bool {
		return !c.gclkSyncbusy().HasBits(mask)
	})
}

func checkGenerator(g uint8) error {
	if g >= GCLK_GEN_NUM {
		return fmt.Errorf("%w: %d", ErrBadGenerator, g)
	}
	return nil
}

func checkChannel(p uint8) error {
	if p >= GCLK_NUM {
		return fmt.Errorf("%w: %d", ErrBadChannel, p)
	}
	return nil
}

func (c *Clocks) gclkEnabled(g uint8) bool {
	return c.genctrl(g).HasBits(GCLK_GENCTRL_GENEN)
}

// GCLKEnabled reports whether generator g is enabled.
func (c *Clocks) GCLKEnabled(g uint8) bool {
	if g >= GCLK_GEN_NUM {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gclkEnabled(g)
}

func (c *Clocks) disableGCLK(g uint8) error {
	if err := c.genSync(g); err != nil {
		return err
	}
	c.genctrl(g).ClearBits(GCLK_GENCTRL_GENEN)
	return c.genSync(g)
}

// DisableGCLK clears generator g's enable bit, leaving its source and
// divisor in place.
func (c *Clocks) DisableGCLK(g uint8) error {
	if err := checkGenerator(g); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disableGCLK(g)
}

// ResetGCLKs disables every generator that Init doesn't allocate statically.
func (c *Clocks) ResetGCLKs() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for g := uint8(0); g < GCLK_GEN_NUM; g++ {
		if c.isStatic(g) || !c.gclkEnabled(g) {
			continue
		}
		if err := c.disableGCLK(g); err != nil {
			return fmt.Errorf("couldn't disable generator %d: %w", g, err)
		}
	}
	return nil
}

// FindFreeGCLK returns the lowest disabled generator able to divide by
// divisor.
func (c *Clocks) FindFreeGCLK(divisor uint16) (uint8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for g := uint8(0); g < GCLK_GEN_NUM; g++ {
		if !fitsGenerator(g, divisor) {
			continue
		}
		if !c.gclkEnabled(g) {
			return g, nil
		}
	}
	return 0, ErrNoFreeGenerator
}

func (c *Clocks) enableClockGenerator(g uint8, source uint8, divisor uint16) error {
	div, divsel := EncodeDivisor(divisor)
	val := uint32(source)&GCLK_GENCTRL_SRC_Msk<<GCLK_GENCTRL_SRC_Pos |
		uint32(div)<<GCLK_GENCTRL_DIV_Pos |
		GCLK_GENCTRL_OE |
		GCLK_GENCTRL_GENEN
	if divsel {
		val |= GCLK_GENCTRL_DIVSEL
	}
	if err := c.genSync(g); err != nil {
		return err
	}
	c.genctrl(g).Set(val)
	return c.genSync(g)
}

// EnableClockGenerator points generator g at source, dividing by divisor,
// with its output enabled. Source, divisor and enable go out in one write.
func (c *Clocks) EnableClockGenerator(g uint8, source uint8, divisor uint16) error {
	if err := checkGenerator(g); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enableClockGenerator(g, source, divisor)
}

// DisableClockGenerator clears generator g's whole control register.
func (c *Clocks) DisableClockGenerator(g uint8) error {
	if err := checkGenerator(g); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.genSync(g); err != nil {
		return err
	}
	c.genctrl(g).Set(0)
	return c.genSync(g)
}

func (c *Clocks) connectGCLKToPeripheral(g uint8, p uint8) error {
	c.pchctrl(p).Set(GCLK_PCHCTRL_CHEN | uint32(g)&GCLK_PCHCTRL_GEN_Msk<<GCLK_PCHCTRL_GEN_Pos)
	if !c.v.ChannelSync {
		return nil
	}
	return c.poll.Until(func() bool {
		return c.gclkSyncbusy().Get() == 0
	})
}

// ConnectGCLKToPeripheral feeds peripheral channel p from generator g.
func (c *Clocks) ConnectGCLKToPeripheral(g uint8, p uint8) error {
	if err := checkGenerator(g); err != nil {
		return err
	}
	if err := checkChannel(p); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectGCLKToPeripheral(g, p)
}

// DisconnectGCLKFromPeripheral turns peripheral channel p off. The channel is
// cleared whichever generator feeds it, but g must still name a generator.
func (c *Clocks) DisconnectGCLKFromPeripheral(g uint8, p uint8) error {
	if err := checkGenerator(g); err != nil {
		return err
	}
	if err := checkChannel(p); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pchctrl(p).Set(0)
	return nil
}

func (c *Clocks) channelEnabled(p uint8) bool {
	return c.pchctrl(p).HasBits(GCLK_PCHCTRL_CHEN)
}

func (c *Clocks) channelGenerator(p uint8) uint8 {
	return uint8(c.pchctrl(p).Field(GCLK_PCHCTRL_GEN_Msk, GCLK_PCHCTRL_GEN_Pos))
}

func (c *Clocks) generatorSource(g uint8) uint8 {
	return uint8(c.genctrl(g).Field(GCLK_GENCTRL_SRC_Msk, GCLK_GENCTRL_SRC_Pos))
}

// generatorDivisor returns generator g's effective divisor.
func (c *Clocks) generatorDivisor(g uint8) uint32 {
	r := c.genctrl(g).Get()
	div := uint16(r >> GCLK_GENCTRL_DIV_Pos & GCLK_GENCTRL_DIV_Msk)
	return EffectiveDivisor(div, r&GCLK_GENCTRL_DIVSEL != 0)
}
