package samd

import (
	"fmt"
)

const (
	// Pass to Init if the DFLL48M fine calibration isn't known.
	DEFAULT_DFLL48M_FINE_CALIBRATION = 512

	DFLL48M_FREQ    = 48000000
	DPLL96M_FREQ    = 96000000
	USB_SOF_FREQ    = 1000 // The DFLL locks to USB start-of-frame in recovery mode
	OSC32K_FREQ     = 32768
	OSC1K_FREQ      = 1024
	DPLL_REF_GCLK   = 5
	DFLL_MUL_CSTEP  = 1
	DFLL_MUL_FSTEP  = 1
	CPUDIV_DEFAULT  = 1
	DPLL_REF_DIVIDE = 24
)

type staticGen struct {
	gen     uint8
	source  uint8
	divisor uint16
}

// dfllGens are up before the DPLL, which takes its reference from generator 5.
var dfllGens = []staticGen{
	{1, GCLK_SOURCE_DFLL48M, 1},
	{DPLL_REF_GCLK, GCLK_SOURCE_DFLL48M, DPLL_REF_DIVIDE},
	{6, GCLK_SOURCE_DFLL48M, 4},
}

// coreGens feed the core and fast peripherals from the DPLL where there is
// one, and from the DFLL otherwise.
var coreGens = []staticGen{
	{CORE_GCLK, GCLK_SOURCE_DPLL96M, 1},
	{4, GCLK_SOURCE_DPLL96M, 1},
}

func (c *Clocks) isStatic(g uint8) bool {
	for _, s := range dfllGens {
		if s.gen == g {
			return true
		}
	}
	for _, s := range coreGens {
		if s.gen == g {
			return true
		}
	}
	return false
}

func (c *Clocks) initOSCULP32K() {
	// Calibration value is loaded at startup
	r := c.reg32(OSC32KCTRL_BASE + OSC32KCTRL_OSCULP32K)
	r.Set(r.Get()&^OSC32KCTRL_OSCULP32K_EN1K | OSC32KCTRL_OSCULP32K_EN32K)
}

func (c *Clocks) initXOSC32K() error {
	c.reg16(OSC32KCTRL_BASE + OSC32KCTRL_XOSC32K).Set(OSC32KCTRL_XOSC32K_ONDEMAND |
		OSC32KCTRL_XOSC32K_EN32K |
		OSC32KCTRL_XOSC32K_XTALEN |
		OSC32KCTRL_XOSC32K_ENABLE)
	status := c.reg32(OSC32KCTRL_BASE + OSC32KCTRL_STATUS)
	return c.poll.Until(func() bool {
		return status.HasBits(OSC32KCTRL_STATUS_XOSC32KRDY)
	})
}

func (c *Clocks) dfllSync() error {
	status := c.reg32(OSCCTRL_BASE + OSCCTRL_STATUS)
	return c.poll.Until(func() bool {
		return status.HasBits(OSCCTRL_STATUS_DFLLRDY)
	})
}

// dfllCoarse reads the DFLL48M coarse calibration from the factory row,
// falling back to the middle of the range if the row is erased.
func (c *Clocks) dfllCoarse() uint32 {
	coarse := c.reg32(NVM_DFLL48M_COARSE_ADDR).Field(NVM_DFLL48M_COARSE_Msk, NVM_DFLL48M_COARSE_Pos)
	if coarse == NVM_DFLL48M_COARSE_ERASED {
		coarse = NVM_DFLL48M_COARSE_DEFAULT
	}
	return coarse
}

// initDFLL48M runs the DFLL in closed loop against USB start-of-frame.
func (c *Clocks) initDFLL48M(fine uint32) error {
	ctrl := c.reg16(OSCCTRL_BASE + OSCCTRL_DFLLCTRL)

	// Writes to DFLLVAL/DFLLMUL need the DFLL running but not on demand.
	ctrl.Set(OSCCTRL_DFLLCTRL_ENABLE)
	if err := c.dfllSync(); err != nil {
		return err
	}
	c.reg32(OSCCTRL_BASE + OSCCTRL_DFLLMUL).Set(
		DFLL_MUL_CSTEP<<OSCCTRL_DFLLMUL_CSTEP_Pos |
			DFLL_MUL_FSTEP<<OSCCTRL_DFLLMUL_FSTEP_Pos |
			(DFLL48M_FREQ/USB_SOF_FREQ)<<OSCCTRL_DFLLMUL_MUL_Pos)
	if err := c.dfllSync(); err != nil {
		return err
	}
	c.reg32(OSCCTRL_BASE + OSCCTRL_DFLLVAL).Set(
		c.dfllCoarse()<<OSCCTRL_DFLLVAL_COARSE_Pos |
			fine&OSCCTRL_DFLLVAL_FINE_Msk<<OSCCTRL_DFLLVAL_FINE_Pos)
	if err := c.dfllSync(); err != nil {
		return err
	}
	ctrl.Set(OSCCTRL_DFLLCTRL_MODE |
		OSCCTRL_DFLLCTRL_USBCRM |
		OSCCTRL_DFLLCTRL_CCDIS |
		OSCCTRL_DFLLCTRL_ENABLE)
	return c.dfllSync()
}

// dpllRatio returns LDR for a DPLL96M output from a reference of ref Hz.
func dpllRatio(ref uint32) uint32 {
	if ref == 0 {
		return 0
	}
	return DPLL96M_FREQ/ref - 1
}

func (c *Clocks) initDPLL96M() error {
	if err := c.connectGCLKToPeripheral(DPLL_REF_GCLK, OSCCTRL_GCLK_ID_FDPLL); err != nil {
		return err
	}
	ldr := dpllRatio(c.generatorFrequency(DPLL_REF_GCLK, 0))
	c.reg32(OSCCTRL_BASE + OSCCTRL_DPLLRATIO).Set(
		0<<OSCCTRL_DPLLRATIO_LDRFRAC_Pos |
			ldr&OSCCTRL_DPLLRATIO_LDR_Msk<<OSCCTRL_DPLLRATIO_LDR_Pos)
	c.reg32(OSCCTRL_BASE + OSCCTRL_DPLLCTRLB).Set(DPLL_REFCLK_GCLK << OSCCTRL_DPLLCTRLB_REFCLK_Pos)
	c.reg8(OSCCTRL_BASE + OSCCTRL_DPLLCTRLA).Set(OSCCTRL_DPLLCTRLA_ENABLE)

	status := c.reg8(OSCCTRL_BASE + OSCCTRL_DPLLSTATUS)
	return c.poll.Until(func() bool {
		return status.HasBits(OSCCTRL_DPLLSTATUS_LOCK | OSCCTRL_DPLLSTATUS_CLKRDY)
	})
}

func (c *Clocks) enableStatic(gens []staticGen) error {
	for _, s := range gens {
		src := s.source
		if src == GCLK_SOURCE_DPLL96M && !c.v.HasDPLL {
			src = GCLK_SOURCE_DFLL48M
		}
		if err := c.enableClockGenerator(s.gen, src, s.divisor); err != nil {
			return fmt.Errorf("couldn't enable generator %d: %w", s.gen, err)
		}
	}
	return nil
}

func (c *Clocks) initStatic(hasCrystal bool, dfllFine uint32) error {
	c.initOSCULP32K()

	rtcctrl := c.reg8(OSC32KCTRL_BASE + OSC32KCTRL_RTCCTRL)
	if hasCrystal {
		if err := c.initXOSC32K(); err != nil {
			return fmt.Errorf("couldn't start XOSC32K: %w", err)
		}
		rtcctrl.Set(OSC32KCTRL_RTCSEL_XOSC32K)
	} else {
		rtcctrl.Set(OSC32KCTRL_RTCSEL_ULP32K)
	}

	if err := c.initDFLL48M(dfllFine); err != nil {
		return fmt.Errorf("couldn't start DFLL48M: %w", err)
	}

	c.reg8(MCLK_BASE + MCLK_CPUDIV).Set(CPUDIV_DEFAULT)

	if err := c.enableStatic(dfllGens); err != nil {
		return err
	}
	if c.v.HasDPLL {
		if err := c.initDPLL96M(); err != nil {
			return fmt.Errorf("couldn't start DPLL96M: %w", err)
		}
	}
	return c.enableStatic(coreGens)
}

// Init brings up the clock tree: the 32kHz reference (the crystal if
// hasCrystal), the DFLL48M in USB clock recovery mode, the DPLL96M where the
// variant has one, and the statically allocated generators. It then calls
// DynamicClocks. Every wait for a ready or lock flag is unbounded unless the
// manager's poller has a timeout.
func (c *Clocks) Init(hasCrystal bool, dfllFine uint32) error {
	c.mu.Lock()
	err := c.initStatic(hasCrystal, dfllFine)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	// Do this after all static clock init so that they aren't used dynamically.
	if c.DynamicClocks != nil {
		if err := c.DynamicClocks(c); err != nil {
			return fmt.Errorf("couldn't init dynamic clocks: %w", err)
		}
	}
	return nil
}
