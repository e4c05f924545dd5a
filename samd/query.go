package samd

// Frequencies are in Hz. A frequency of 0 means unknown: the clock is off,
// fed from something software can't measure, or part of a reference loop.

func (c *Clocks) oscEnabled(index uint8) bool {
	switch index {
	case GCLK_SOURCE_XOSC:
		return c.reg16(OSCCTRL_BASE + OSCCTRL_XOSCCTRL).HasBits(OSCCTRL_XOSCCTRL_ENABLE)
	case GCLK_SOURCE_OSCULP32K:
		return true
	case GCLK_SOURCE_XOSC32K:
		return c.reg16(OSC32KCTRL_BASE + OSC32KCTRL_XOSC32K).HasBits(OSC32KCTRL_XOSC32K_ENABLE)
	case GCLK_SOURCE_OSC16M:
		return c.reg8(OSCCTRL_BASE + OSCCTRL_OSC16MCTRL).HasBits(OSCCTRL_OSC16MCTRL_ENABLE)
	case GCLK_SOURCE_DFLL48M:
		return c.reg16(OSCCTRL_BASE + OSCCTRL_DFLLCTRL).HasBits(OSCCTRL_DFLLCTRL_ENABLE)
	case GCLK_SOURCE_DPLL96M:
		return c.reg8(OSCCTRL_BASE + OSCCTRL_DPLLCTRLA).HasBits(OSCCTRL_DPLLCTRLA_ENABLE)
	}
	return false
}

func (c *Clocks) dpllRefclk() uint32 {
	return c.reg32(OSCCTRL_BASE+OSCCTRL_DPLLCTRLB).Field(OSCCTRL_DPLLCTRLB_REFCLK_Msk, OSCCTRL_DPLLCTRLB_REFCLK_Pos)
}

// dpllSource returns the oscillator at the root of the DPLL's reference.
func (c *Clocks) dpllSource() (uint8, bool) {
	switch c.dpllRefclk() {
	case DPLL_REFCLK_GCLK:
		if !c.channelEnabled(OSCCTRL_GCLK_ID_FDPLL) {
			return 0, false
		}
		return c.generatorSource(c.channelGenerator(OSCCTRL_GCLK_ID_FDPLL)), true
	case DPLL_REFCLK_XOSC32K:
		return GCLK_SOURCE_XOSC32K, true
	case DPLL_REFCLK_XOSC0:
		return GCLK_SOURCE_XOSC, true
	}
	return 0, false
}

// generatorFrequency returns generator g's output. seen holds the
// generators already on the path, to cut reference loops through the DPLL.
func (c *Clocks) generatorFrequency(g uint8, seen uint16) uint32 {
	if g >= GCLK_GEN_NUM || seen&(1<<g) != 0 || !c.gclkEnabled(g) {
		return 0
	}
	return c.oscFrequency(c.generatorSource(g), seen|1<<g) / c.generatorDivisor(g)
}

func (c *Clocks) dpllFrequency(seen uint16) uint32 {
	var freq uint64
	switch c.dpllRefclk() {
	case DPLL_REFCLK_GCLK:
		if !c.channelEnabled(OSCCTRL_GCLK_ID_FDPLL) {
			return 0
		}
		freq = uint64(c.generatorFrequency(c.channelGenerator(OSCCTRL_GCLK_ID_FDPLL), seen))
	case DPLL_REFCLK_XOSC32K:
		freq = OSC32K_FREQ
	default:
		return 0 // XOSC frequency isn't known to software
	}
	ratio := c.reg32(OSCCTRL_BASE + OSCCTRL_DPLLRATIO).Get()
	ldr := uint64(ratio >> OSCCTRL_DPLLRATIO_LDR_Pos & OSCCTRL_DPLLRATIO_LDR_Msk)
	ldrfrac := uint64(ratio >> OSCCTRL_DPLLRATIO_LDRFRAC_Pos & OSCCTRL_DPLLRATIO_LDRFRAC_Msk)
	return uint32(freq*(ldr+1) + freq*ldrfrac/32)
}

var osc16mFreqs = [4]uint32{4000000, 8000000, 12000000, 16000000}

func (c *Clocks) oscFrequency(index uint8, seen uint16) uint32 {
	switch index {
	case GCLK_SOURCE_XOSC:
		return 0 // unknown
	case GCLK_SOURCE_GCLKGEN1:
		return c.generatorFrequency(GCLK_DIV_16BIT_GEN, seen)
	case GCLK_SOURCE_OSCULP32K, GCLK_SOURCE_XOSC32K:
		return OSC32K_FREQ
	case GCLK_SOURCE_OSC16M:
		fsel := c.reg8(OSCCTRL_BASE+OSCCTRL_OSC16MCTRL).Get() >> OSCCTRL_OSC16MCTRL_FSEL_Pos & OSCCTRL_OSC16MCTRL_FSEL_Msk
		return osc16mFreqs[fsel]
	case GCLK_SOURCE_DFLL48M:
		return DFLL48M_FREQ
	case GCLK_SOURCE_DPLL96M:
		return c.dpllFrequency(seen)
	}
	return 0
}

func (c *Clocks) rtcSelect() uint8 {
	return c.reg8(OSC32KCTRL_BASE+OSC32KCTRL_RTCCTRL).Get() & OSC32KCTRL_RTCCTRL_RTCSEL_Msk
}

func (c *Clocks) enabled(kind Kind, index uint8) bool {
	switch kind {
	case Oscillator:
		return c.oscEnabled(index)
	case Channel:
		return index < GCLK_NUM && c.channelEnabled(index)
	case System:
		switch index {
		case SYSTEM_TICK:
			return c.reg32(SYSTICK_BASE + SYSTICK_CTRL).HasBits(SYSTICK_CTRL_ENABLE)
		case SYSTEM_CPU:
			return c.gclkEnabled(CORE_GCLK)
		case SYSTEM_RTC:
			_, ok := c.rtcParent()
			return ok
		}
	}
	return false
}

// Enabled reports whether a clock is running.
func (c *Clocks) Enabled(kind Kind, index uint8) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled(kind, index)
}

func (c *Clocks) rtcParent() (uint8, bool) {
	switch c.rtcSelect() {
	case OSC32KCTRL_RTCSEL_ULP1K, OSC32KCTRL_RTCSEL_ULP32K:
		return GCLK_SOURCE_OSCULP32K, true
	case OSC32KCTRL_RTCSEL_XOSC1K, OSC32KCTRL_RTCSEL_XOSC32K:
		return GCLK_SOURCE_XOSC32K, true
	}
	return 0, false
}

func (c *Clocks) parent(kind Kind, index uint8) (Kind, uint8, bool) {
	switch kind {
	case Oscillator:
		if index != GCLK_SOURCE_DPLL96M || !c.oscEnabled(index) {
			return 0, 0, false
		}
		src, ok := c.dpllSource()
		return Oscillator, src, ok
	case Channel:
		if index >= GCLK_NUM || !c.channelEnabled(index) {
			return 0, 0, false
		}
		return Oscillator, c.generatorSource(c.channelGenerator(index)), true
	case System:
		switch index {
		case SYSTEM_TICK, SYSTEM_CPU:
			if !c.enabled(System, index) {
				return 0, 0, false
			}
			return Oscillator, c.generatorSource(CORE_GCLK), true
		case SYSTEM_RTC:
			src, ok := c.rtcParent()
			return Oscillator, src, ok
		}
	}
	return 0, 0, false
}

// Parent returns the oscillator one step up the tree from a clock: the DPLL's
// reference source, a channel's generator source, or the core generator's
// source for the tick and CPU clocks. ok is false for roots, disabled clocks
// and unknown indices.
func (c *Clocks) Parent(kind Kind, index uint8) (pkind Kind, pindex uint8, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parent(kind, index)
}

func (c *Clocks) frequency(kind Kind, index uint8) uint32 {
	switch kind {
	case Oscillator:
		return c.oscFrequency(index, 0)
	case Channel:
		if index < GCLK_NUM && c.channelEnabled(index) {
			return c.generatorFrequency(c.channelGenerator(index), 0)
		}
	case System:
		switch index {
		case SYSTEM_TICK:
			load := c.reg32(SYSTICK_BASE+SYSTICK_LOAD).Get() & SYSTICK_LOAD_Msk
			return c.generatorFrequency(CORE_GCLK, 0) / (load + 1)
		case SYSTEM_CPU:
			div := uint32(c.reg8(MCLK_BASE + MCLK_CPUDIV).Get())
			if div == 0 {
				return 0
			}
			return c.generatorFrequency(CORE_GCLK, 0) / div
		case SYSTEM_RTC:
			switch c.rtcSelect() {
			case OSC32KCTRL_RTCSEL_ULP1K, OSC32KCTRL_RTCSEL_XOSC1K:
				return OSC1K_FREQ
			case OSC32KCTRL_RTCSEL_ULP32K, OSC32KCTRL_RTCSEL_XOSC32K:
				return OSC32K_FREQ
			}
		}
	}
	return 0
}

// Frequency returns a clock's frequency in Hz, or 0 if it can't be worked
// out.
func (c *Clocks) Frequency(kind Kind, index uint8) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frequency(kind, index)
}

// GeneratorFrequency returns generator g's output frequency, or 0 if it is
// disabled or unknown.
func (c *Clocks) GeneratorFrequency(g uint8) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generatorFrequency(g, 0)
}

// GeneratorConfig is the decoded control register of one generator.
type GeneratorConfig struct {
	Enabled bool
	Source  uint8
	Divisor uint32 // effective
	Output  bool
}

// Generator decodes generator g's control register.
func (c *Clocks) Generator(g uint8) (GeneratorConfig, error) {
	if err := checkGenerator(g); err != nil {
		return GeneratorConfig{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.genctrl(g).Get()
	return GeneratorConfig{
		Enabled: r&GCLK_GENCTRL_GENEN != 0,
		Source:  uint8(r >> GCLK_GENCTRL_SRC_Pos & GCLK_GENCTRL_SRC_Msk),
		Divisor: c.generatorDivisor(g),
		Output:  r&GCLK_GENCTRL_OE != 0,
	}, nil
}
