package samd

const (
	OSCULP32K_CALIB_MAX = 0x3f
	DFLL48M_FINE_MAX    = 0x3ff
	SYSTICK_RELOAD_MIN  = 0x1000
	SYSTICK_RELOAD_MAX  = 0x1000000
)

func (c *Clocks) calibration(kind Kind, index uint8) uint32 {
	switch {
	case kind == Oscillator && index == GCLK_SOURCE_OSCULP32K:
		return c.reg32(OSC32KCTRL_BASE+OSC32KCTRL_OSCULP32K).Field(OSC32KCTRL_OSCULP32K_CALIB_Msk, OSC32KCTRL_OSCULP32K_CALIB_Pos)
	case kind == Oscillator && index == GCLK_SOURCE_DFLL48M:
		return c.reg32(OSCCTRL_BASE+OSCCTRL_DFLLVAL).Field(OSCCTRL_DFLLVAL_FINE_Msk, OSCCTRL_DFLLVAL_FINE_Pos)
	case kind == System && index == SYSTEM_TICK:
		return c.reg32(SYSTICK_BASE+SYSTICK_LOAD).Get()&SYSTICK_LOAD_Msk + 1
	}
	return 0
}

// Calibration returns a clock's calibration value: the OSCULP32K trim, the
// DFLL48M fine value, or the SysTick reload (LOAD+1). Other clocks read 0.
func (c *Clocks) Calibration(kind Kind, index uint8) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calibration(kind, index)
}

// SetCalibration writes a calibration value. Values outside the hardware
// range are rejected with ErrOutOfRange, not clamped; clocks without a
// writable calibration give ErrUnsupported.
func (c *Clocks) SetCalibration(kind Kind, index uint8, val uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case kind == Oscillator && index == GCLK_SOURCE_OSCULP32K:
		if val > OSCULP32K_CALIB_MAX {
			return ErrOutOfRange
		}
		c.reg32(OSC32KCTRL_BASE+OSC32KCTRL_OSCULP32K).ReplaceBits(val, OSC32KCTRL_OSCULP32K_CALIB_Msk, OSC32KCTRL_OSCULP32K_CALIB_Pos)
		return nil
	case kind == Oscillator && index == GCLK_SOURCE_DFLL48M:
		if val > DFLL48M_FINE_MAX {
			return ErrOutOfRange
		}
		c.reg32(OSCCTRL_BASE+OSCCTRL_DFLLVAL).ReplaceBits(val, OSCCTRL_DFLLVAL_FINE_Msk, OSCCTRL_DFLLVAL_FINE_Pos)
		return c.dfllSync()
	case kind == System && index == SYSTEM_TICK:
		if val < SYSTICK_RELOAD_MIN || val > SYSTICK_RELOAD_MAX {
			return ErrOutOfRange
		}
		c.reg32(SYSTICK_BASE + SYSTICK_LOAD).Set(val - 1)
		return nil
	}
	return ErrUnsupported
}
