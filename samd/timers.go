package samd

import (
	"fmt"
)

// TCCChannels is the number of capture/compare channels on each TCC.
var TCCChannels = [TCC_INST_NUM]uint8{4}

var tcGCLKIDs = [TC_INST_NUM]uint8{TC0_GCLK_ID, TC1_GCLK_ID, TC2_GCLK_ID, TC3_GCLK_ID}

var tcAPBMasks = [TC_INST_NUM]uint32{MCLK_APBCMASK_TC0, MCLK_APBCMASK_TC1, MCLK_APBCMASK_TC2, MCLK_APBCMASK_TC3}

// TurnOnTimerClocks opens the bus clock of TC index (or TCC index if isTC is
// false) and feeds its peripheral channel from generator gen.
func (c *Clocks) TurnOnTimerClocks(isTC bool, index uint8, gen uint8) error {
	if err := checkGenerator(gen); err != nil {
		return err
	}
	var id uint8
	var mask uint32
	switch {
	case isTC && index < TC_INST_NUM:
		id, mask = tcGCLKIDs[index], tcAPBMasks[index]
	case !isTC && index < TCC_INST_NUM:
		id, mask = TCC0_GCLK_ID, MCLK_APBCMASK_TCC0
	default:
		return fmt.Errorf("%w: %d", ErrBadTimer, index)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reg32(MCLK_BASE + MCLK_APBCMASK).SetBits(mask)
	c.pchctrl(id).Set(GCLK_PCHCTRL_CHEN | uint32(gen)&GCLK_PCHCTRL_GEN_Msk<<GCLK_PCHCTRL_GEN_Pos)
	return nil
}

// TC is one timer/counter instance, accessed through its 16-bit count view.
type TC struct {
	c    *Clocks
	base uint32
}

// TC returns timer/counter index.
func (c *Clocks) TC(index uint8) (*TC, error) {
	if index >= TC_INST_NUM {
		return nil, fmt.Errorf("%w: %d", ErrBadTimer, index)
	}
	return &TC{c: c, base: TC0_BASE + uint32(index)*TC_STRIDE}, nil
}

// SetEnabled sets CTRLA.ENABLE and waits for it to synchronise.
func (t *TC) SetEnabled(on bool) error {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	r := t.c.reg32(t.base + TC_CTRLA)
	if on {
		r.SetBits(TC_CTRLA_ENABLE)
	} else {
		r.ClearBits(TC_CTRLA_ENABLE)
	}
	sync := t.c.reg32(t.base + TC_SYNCBUSY)
	return t.c.poll.Until(func() bool {
		return !sync.HasBits(TC_SYNCBUSY_ENABLE)
	})
}

func (t *TC) Enabled() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	return t.c.reg32(t.base + TC_CTRLA).HasBits(TC_CTRLA_ENABLE)
}

// WaitForSync waits until no register of the timer is synchronising.
func (t *TC) WaitForSync() error {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	sync := t.c.reg32(t.base + TC_SYNCBUSY)
	return t.c.poll.Until(func() bool {
		return sync.Get() == 0
	})
}
