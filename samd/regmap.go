package samd

import (
	"github.com/Jon-Bright/samclk/regs"
)

// Peripheral base addresses.
const (
	MCLK_BASE       = 0x40000400
	OSCCTRL_BASE    = 0x40000C00
	OSC32KCTRL_BASE = 0x40001000
	GCLK_BASE       = 0x40001800
	EIC_BASE        = 0x40002400
	TCC0_BASE       = 0x42001C00
	TC0_BASE        = 0x42002000 // TCn at TC0_BASE + n*TC_STRIDE
	TC_STRIDE       = 0x400
	SYSTICK_BASE    = 0xE000E010
	NVM_SW_CALIB    = 0x00806020 // Factory calibration row
)

// Regions lists the windows a memory-backed register file has to map.
var Regions = []regs.Region{
	{Base: MCLK_BASE, Size: 0x20},
	{Base: OSCCTRL_BASE, Size: 0x40},
	{Base: OSC32KCTRL_BASE, Size: 0x20},
	{Base: GCLK_BASE, Size: 0x140},
	{Base: EIC_BASE, Size: 0x38},
	{Base: TCC0_BASE, Size: 0x80},
	{Base: TC0_BASE, Size: TC_INST_NUM * TC_STRIDE},
	{Base: SYSTICK_BASE, Size: 0x10},
	{Base: NVM_SW_CALIB, Size: 0x10},
}

// GCLK
const (
	GCLK_CTRLA    = 0x00
	GCLK_SYNCBUSY = 0x04
	GCLK_GENCTRL  = 0x20 // 32-bit, one per generator
	GCLK_PCHCTRL  = 0x80 // 32-bit, one per peripheral channel

	GCLK_GEN_NUM = 12
	GCLK_NUM     = 48
	CORE_GCLK    = 0

	GCLK_CTRLA_SWRST             = 1 << 0
	GCLK_SYNCBUSY_GENCTRL_Pos    = 2
	GCLK_GENCTRL_SRC_Pos         = 0
	GCLK_GENCTRL_SRC_Msk         = 0x1f
	GCLK_GENCTRL_GENEN           = 1 << 8
	GCLK_GENCTRL_IDC             = 1 << 9
	GCLK_GENCTRL_OOV             = 1 << 10
	GCLK_GENCTRL_OE              = 1 << 11
	GCLK_GENCTRL_DIVSEL          = 1 << 12
	GCLK_GENCTRL_RUNSTDBY        = 1 << 13
	GCLK_GENCTRL_DIV_Pos         = 16
	GCLK_GENCTRL_DIV_Msk         = 0xffff
	GCLK_PCHCTRL_GEN_Pos         = 0
	GCLK_PCHCTRL_GEN_Msk         = 0xf
	GCLK_PCHCTRL_CHEN            = 1 << 6
	GCLK_PCHCTRL_WRTLOCK         = 1 << 7
	GCLK_DIV_16BIT_GEN           = 1 // The only generator with a 16-bit DIV field
	GCLK_DIV_LINEAR_MAX          = 0xff
	GCLK_DIV_LINEAR_MAX_16BITGEN = 0xffff
)

// Generator sources, as written to GENCTRL.SRC. These double as the
// oscillator indices of the oscillator clock kind.
const (
	GCLK_SOURCE_XOSC      = 0
	GCLK_SOURCE_GCLKIN    = 1
	GCLK_SOURCE_GCLKGEN1  = 2
	GCLK_SOURCE_OSCULP32K = 3
	GCLK_SOURCE_XOSC32K   = 5
	GCLK_SOURCE_OSC16M    = 6
	GCLK_SOURCE_DFLL48M   = 7
	GCLK_SOURCE_DPLL96M   = 8
)

// Peripheral channel IDs (PCHCTRL index).
const (
	OSCCTRL_GCLK_ID_DFLL48    = 0
	OSCCTRL_GCLK_ID_FDPLL     = 1
	OSCCTRL_GCLK_ID_FDPLL32K  = 2
	EIC_GCLK_ID               = 3
	USB_GCLK_ID               = 4
	TCC0_GCLK_ID              = 22
	TC0_GCLK_ID               = 23
	TC1_GCLK_ID               = 24
	TC2_GCLK_ID               = 25
	TC3_GCLK_ID               = 26
	OSCCTRL_GCLK_ID_FDPLL_NUM = 1
)

// OSCCTRL
const (
	OSCCTRL_STATUS       = 0x0C
	OSCCTRL_XOSCCTRL     = 0x10 // 16-bit
	OSCCTRL_OSC16MCTRL   = 0x14 // 8-bit
	OSCCTRL_DFLLCTRL     = 0x18 // 16-bit
	OSCCTRL_DFLLVAL      = 0x1C
	OSCCTRL_DFLLMUL      = 0x20
	OSCCTRL_DFLLSYNC     = 0x24 // 8-bit
	OSCCTRL_DPLLCTRLA    = 0x28 // 8-bit
	OSCCTRL_DPLLRATIO    = 0x2C
	OSCCTRL_DPLLCTRLB    = 0x30
	OSCCTRL_DPLLPRESC    = 0x34 // 8-bit
	OSCCTRL_DPLLSYNCBUSY = 0x38 // 8-bit
	OSCCTRL_DPLLSTATUS   = 0x3C // 8-bit

	OSCCTRL_STATUS_XOSCRDY   = 1 << 0
	OSCCTRL_STATUS_OSC16MRDY = 1 << 4
	OSCCTRL_STATUS_DFLLRDY   = 1 << 8

	OSCCTRL_XOSCCTRL_ENABLE = 1 << 1

	OSCCTRL_OSC16MCTRL_ENABLE   = 1 << 1
	OSCCTRL_OSC16MCTRL_FSEL_Pos = 2
	OSCCTRL_OSC16MCTRL_FSEL_Msk = 0x3
	OSCCTRL_OSC16MCTRL_ONDEMAND = 1 << 7

	OSCCTRL_DFLLCTRL_ENABLE   = 1 << 1
	OSCCTRL_DFLLCTRL_MODE     = 1 << 2
	OSCCTRL_DFLLCTRL_STABLE   = 1 << 3
	OSCCTRL_DFLLCTRL_LLAW     = 1 << 4
	OSCCTRL_DFLLCTRL_USBCRM   = 1 << 5
	OSCCTRL_DFLLCTRL_RUNSTDBY = 1 << 6
	OSCCTRL_DFLLCTRL_ONDEMAND = 1 << 7
	OSCCTRL_DFLLCTRL_CCDIS    = 1 << 8
	OSCCTRL_DFLLCTRL_QLDIS    = 1 << 9
	OSCCTRL_DFLLCTRL_BPLCKC   = 1 << 10
	OSCCTRL_DFLLCTRL_WAITLOCK = 1 << 11

	OSCCTRL_DFLLVAL_FINE_Pos   = 0
	OSCCTRL_DFLLVAL_FINE_Msk   = 0x3ff
	OSCCTRL_DFLLVAL_COARSE_Pos = 10
	OSCCTRL_DFLLVAL_COARSE_Msk = 0x3f

	OSCCTRL_DFLLMUL_MUL_Pos   = 0
	OSCCTRL_DFLLMUL_MUL_Msk   = 0xffff
	OSCCTRL_DFLLMUL_FSTEP_Pos = 16
	OSCCTRL_DFLLMUL_FSTEP_Msk = 0x3ff
	OSCCTRL_DFLLMUL_CSTEP_Pos = 26
	OSCCTRL_DFLLMUL_CSTEP_Msk = 0x3f

	OSCCTRL_DPLLCTRLA_ENABLE = 1 << 1

	OSCCTRL_DPLLRATIO_LDR_Pos     = 0
	OSCCTRL_DPLLRATIO_LDR_Msk     = 0xfff
	OSCCTRL_DPLLRATIO_LDRFRAC_Pos = 16
	OSCCTRL_DPLLRATIO_LDRFRAC_Msk = 0xf

	OSCCTRL_DPLLCTRLB_REFCLK_Pos = 4
	OSCCTRL_DPLLCTRLB_REFCLK_Msk = 0x3

	OSCCTRL_DPLLSYNCBUSY_ENABLE    = 1 << 1
	OSCCTRL_DPLLSYNCBUSY_DPLLRATIO = 1 << 2

	OSCCTRL_DPLLSTATUS_LOCK   = 1 << 0
	OSCCTRL_DPLLSTATUS_CLKRDY = 1 << 1
)

// DPLL reference clock selections (DPLLCTRLB.REFCLK).
const (
	DPLL_REFCLK_GCLK    = 0
	DPLL_REFCLK_XOSC32K = 1
	DPLL_REFCLK_XOSC0   = 2
	DPLL_REFCLK_XOSC1   = 3
)

// OSC32KCTRL
const (
	OSC32KCTRL_STATUS    = 0x0C
	OSC32KCTRL_RTCCTRL   = 0x10 // 8-bit
	OSC32KCTRL_XOSC32K   = 0x14 // 16-bit
	OSC32KCTRL_OSCULP32K = 0x1C

	OSC32KCTRL_STATUS_XOSC32KRDY = 1 << 0

	OSC32KCTRL_RTCCTRL_RTCSEL_Msk = 0x7
	OSC32KCTRL_RTCSEL_ULP1K       = 0
	OSC32KCTRL_RTCSEL_ULP32K      = 1
	OSC32KCTRL_RTCSEL_XOSC1K      = 4
	OSC32KCTRL_RTCSEL_XOSC32K     = 5

	OSC32KCTRL_XOSC32K_ENABLE   = 1 << 1
	OSC32KCTRL_XOSC32K_XTALEN   = 1 << 2
	OSC32KCTRL_XOSC32K_EN32K    = 1 << 3
	OSC32KCTRL_XOSC32K_EN1K     = 1 << 4
	OSC32KCTRL_XOSC32K_RUNSTDBY = 1 << 6
	OSC32KCTRL_XOSC32K_ONDEMAND = 1 << 7

	OSC32KCTRL_OSCULP32K_EN32K     = 1 << 1
	OSC32KCTRL_OSCULP32K_EN1K      = 1 << 2
	OSC32KCTRL_OSCULP32K_CALIB_Pos = 8
	OSC32KCTRL_OSCULP32K_CALIB_Msk = 0x3f
)

// MCLK
const (
	MCLK_INTFLAG  = 0x03 // 8-bit
	MCLK_CPUDIV   = 0x04 // 8-bit
	MCLK_APBAMASK = 0x14
	MCLK_APBCMASK = 0x1C

	MCLK_INTFLAG_CKRDY = 1 << 0

	MCLK_APBAMASK_EIC  = 1 << 9
	MCLK_APBCMASK_TCC0 = 1 << 10
	MCLK_APBCMASK_TC0  = 1 << 11
	MCLK_APBCMASK_TC1  = 1 << 12
	MCLK_APBCMASK_TC2  = 1 << 13
	MCLK_APBCMASK_TC3  = 1 << 14
)

// SysTick
const (
	SYSTICK_CTRL = 0x0
	SYSTICK_LOAD = 0x4
	SYSTICK_VAL  = 0x8

	SYSTICK_CTRL_ENABLE = 1 << 0
	SYSTICK_LOAD_Msk    = 0xffffff
)

// Factory calibration row.
const (
	NVM_DFLL48M_COARSE_ADDR    = NVM_SW_CALIB + 4
	NVM_DFLL48M_COARSE_Pos     = 26
	NVM_DFLL48M_COARSE_Msk     = 0x3f
	NVM_DFLL48M_COARSE_ERASED  = 0x3f
	NVM_DFLL48M_COARSE_DEFAULT = 0x1f
)

// EIC
const (
	EIC_CTRLA    = 0x00 // 8-bit
	EIC_SYNCBUSY = 0x04
	EIC_EVCTRL   = 0x08
	EIC_INTENCLR = 0x0C
	EIC_INTENSET = 0x10
	EIC_INTFLAG  = 0x14

	EIC_CTRLA_SWRST     = 1 << 0
	EIC_CTRLA_ENABLE    = 1 << 1
	EIC_SYNCBUSY_SWRST  = 1 << 0
	EIC_SYNCBUSY_ENABLE = 1 << 1
	EIC_EVCTRL_EXTINTEO = 0xffff
	EIC_EXTINT_Msk      = 0xffff
	EIC_EXTINT_NUM      = 16
)

// TC (COUNT16 view) and TCC
const (
	TC_INST_NUM  = 4
	TCC_INST_NUM = 1

	TC_CTRLA           = 0x00
	TC_SYNCBUSY        = 0x10
	TC_CTRLA_ENABLE    = 1 << 1
	TC_SYNCBUSY_ENABLE = 1 << 1
	TCC_CTRLA          = 0x00
	TCC_SYNCBUSY       = 0x08
)
