package samd

import (
	"fmt"
)

// Handler is called for an external interrupt on its EIC channel.
type Handler func(ch uint8)

// EIC drives the external interrupt controller. It shares the lock of the
// Clocks it was built from.
type EIC struct {
	c        *Clocks
	handlers [EIC_EXTINT_NUM]Handler
}

func NewEIC(c *Clocks) *EIC {
	return &EIC{c: c}
}

func checkEICChannel(ch uint8) error {
	if ch >= EIC_EXTINT_NUM {
		return fmt.Errorf("%w: %d", ErrBadEICChannel, ch)
	}
	return nil
}

func (e *EIC) setEnabled(on bool) error {
	r := e.c.reg8(EIC_BASE + EIC_CTRLA)
	if on {
		r.SetBits(EIC_CTRLA_ENABLE)
	} else {
		r.ClearBits(EIC_CTRLA_ENABLE)
	}
	sync := e.c.reg32(EIC_BASE + EIC_SYNCBUSY)
	return e.c.poll.Until(func() bool {
		return !sync.HasBits(EIC_SYNCBUSY_ENABLE)
	})
}

// TurnOn opens the EIC's bus clock, feeds it from the core generator and
// enables it.
func (e *EIC) TurnOn() error {
	e.c.mu.Lock()
	defer e.c.mu.Unlock()
	e.c.reg32(MCLK_BASE + MCLK_APBAMASK).SetBits(MCLK_APBAMASK_EIC)
	if err := e.c.connectGCLKToPeripheral(CORE_GCLK, EIC_GCLK_ID); err != nil {
		return fmt.Errorf("couldn't connect EIC clock: %w", err)
	}
	return e.setEnabled(true)
}

// TurnOff disables the EIC and gates its clocks.
func (e *EIC) TurnOff() error {
	e.c.mu.Lock()
	defer e.c.mu.Unlock()
	if err := e.setEnabled(false); err != nil {
		return err
	}
	e.c.reg32(MCLK_BASE + MCLK_APBAMASK).ClearBits(MCLK_APBAMASK_EIC)
	e.c.pchctrl(EIC_GCLK_ID).Set(0)
	return nil
}

func (e *EIC) Enabled() bool {
	e.c.mu.Lock()
	defer e.c.mu.Unlock()
	return e.c.reg8(EIC_BASE + EIC_CTRLA).HasBits(EIC_CTRLA_ENABLE)
}

// SetEnabled sets CTRLA.ENABLE and waits for it to synchronise.
func (e *EIC) SetEnabled(on bool) error {
	e.c.mu.Lock()
	defer e.c.mu.Unlock()
	return e.setEnabled(on)
}

// Reset software-resets the EIC and drops every registered handler.
func (e *EIC) Reset() error {
	e.c.mu.Lock()
	defer e.c.mu.Unlock()
	e.c.reg8(EIC_BASE + EIC_CTRLA).Set(EIC_CTRLA_SWRST)
	sync := e.c.reg32(EIC_BASE + EIC_SYNCBUSY)
	if err := e.c.poll.Until(func() bool {
		return !sync.HasBits(EIC_SYNCBUSY_SWRST)
	}); err != nil {
		return err
	}
	for i := range e.handlers {
		e.handlers[i] = nil
	}
	return nil
}

// ChannelFree reports whether nothing uses channel ch: no handler, no
// interrupt enabled and no event output.
func (e *EIC) ChannelFree(ch uint8) bool {
	if ch >= EIC_EXTINT_NUM {
		return false
	}
	e.c.mu.Lock()
	defer e.c.mu.Unlock()
	mask := uint32(1) << ch
	return e.handlers[ch] == nil &&
		e.c.reg32(EIC_BASE+EIC_INTENSET).Get()&mask == 0 &&
		e.c.reg32(EIC_BASE+EIC_EVCTRL).Get()&EIC_EVCTRL_EXTINTEO&mask == 0
}

// SetHandler registers h for channel ch. A nil h frees the channel.
func (e *EIC) SetHandler(ch uint8, h Handler) error {
	if err := checkEICChannel(ch); err != nil {
		return err
	}
	e.c.mu.Lock()
	defer e.c.mu.Unlock()
	e.handlers[ch] = h
	return nil
}

// Handle services a pending EIC interrupt: every flagged channel is cleared
// and its handler called, lowest channel first. Handlers run without the
// lock held. It returns the channels that were flagged.
func (e *EIC) Handle() []uint8 {
	e.c.mu.Lock()
	flag := e.c.reg32(EIC_BASE + EIC_INTFLAG)
	pending := flag.Get() & EIC_EXTINT_Msk
	var chs []uint8
	var hs []Handler
	for i := uint8(0); i < EIC_EXTINT_NUM; i++ {
		if pending&(1<<i) == 0 {
			continue
		}
		chs = append(chs, i)
		hs = append(hs, e.handlers[i])
	}
	if pending != 0 {
		flag.Set(pending)
	}
	e.c.mu.Unlock()

	for i, h := range hs {
		if h != nil {
			h(chs[i])
		}
	}
	return chs
}
