package samd

import (
	"github.com/Jon-Bright/samclk/regs"
)

// Factory values loaded into a fresh Model.
const (
	MODEL_OSCULP32K_CALIB = 0x1a
	MODEL_DFLL48M_COARSE  = 0x1d
)

// Model simulates the clock-related behaviour of a SAM L22 on top of a
// regs.Sim: reset values, ready and lock flags rising after enables,
// SYNCBUSY bits staying set for a while after synchronised writes, and the
// EIC's set/clear register pairs.
type Model struct {
	Sim *regs.Sim

	// SyncReads is how many SYNCBUSY reads a synchronised write stays busy for.
	SyncReads int
	// ReadyReads is how many status reads an oscillator takes to come ready.
	ReadyReads int
	// Dead holds oscillators (GCLK_SOURCE_* values) that never report ready.
	Dead map[uint8]bool
}

// NewModel returns a powered-on chip model.
func NewModel(syncReads, readyReads int) *Model {
	m := &Model{
		Sim:        regs.NewSim(),
		SyncReads:  syncReads,
		ReadyReads: readyReads,
		Dead:       make(map[uint8]bool),
	}
	m.reset()
	m.hook()
	return m
}

func (m *Model) reset() {
	s := m.Sim
	s.Poke(OSC32KCTRL_BASE+OSC32KCTRL_OSCULP32K,
		MODEL_OSCULP32K_CALIB<<OSC32KCTRL_OSCULP32K_CALIB_Pos|OSC32KCTRL_OSCULP32K_EN32K|OSC32KCTRL_OSCULP32K_EN1K)
	s.Poke(OSCCTRL_BASE+OSCCTRL_OSC16MCTRL, OSCCTRL_OSC16MCTRL_ENABLE|OSCCTRL_OSC16MCTRL_ONDEMAND)
	s.Poke(OSCCTRL_BASE+OSCCTRL_STATUS, OSCCTRL_STATUS_OSC16MRDY)
	s.Poke(GCLK_BASE+GCLK_GENCTRL, GCLK_SOURCE_OSC16M<<GCLK_GENCTRL_SRC_Pos|GCLK_GENCTRL_GENEN)
	s.Poke(MCLK_BASE+MCLK_CPUDIV, CPUDIV_DEFAULT)
	s.Poke(NVM_DFLL48M_COARSE_ADDR, MODEL_DFLL48M_COARSE<<NVM_DFLL48M_COARSE_Pos)
}

// ready raises (or drops, for a dead or disabled oscillator) a status flag.
func (m *Model) ready(src uint8, on bool, status uint32, mask uint32) {
	if !on || m.Dead[src] {
		m.Sim.Poke(status, m.Sim.Peek(status)&^mask)
		return
	}
	m.Sim.Rise(status, mask, m.ReadyReads)
}

func (m *Model) hook() {
	s := m.Sim

	s.OnWrite(OSC32KCTRL_BASE+OSC32KCTRL_XOSC32K, func(s *regs.Sim, addr uint32, old, val uint32) {
		m.ready(GCLK_SOURCE_XOSC32K, val&OSC32KCTRL_XOSC32K_ENABLE != 0,
			OSC32KCTRL_BASE+OSC32KCTRL_STATUS, OSC32KCTRL_STATUS_XOSC32KRDY)
	})
	s.OnWrite(OSCCTRL_BASE+OSCCTRL_XOSCCTRL, func(s *regs.Sim, addr uint32, old, val uint32) {
		m.ready(GCLK_SOURCE_XOSC, val&OSCCTRL_XOSCCTRL_ENABLE != 0,
			OSCCTRL_BASE+OSCCTRL_STATUS, OSCCTRL_STATUS_XOSCRDY)
	})
	s.OnWrite(OSCCTRL_BASE+OSCCTRL_OSC16MCTRL, func(s *regs.Sim, addr uint32, old, val uint32) {
		m.ready(GCLK_SOURCE_OSC16M, val&OSCCTRL_OSC16MCTRL_ENABLE != 0,
			OSCCTRL_BASE+OSCCTRL_STATUS, OSCCTRL_STATUS_OSC16MRDY)
	})
	// Every DFLL register write drops DFLLRDY until it has synchronised.
	for _, off := range []uint32{OSCCTRL_DFLLCTRL, OSCCTRL_DFLLVAL, OSCCTRL_DFLLMUL} {
		s.OnWrite(OSCCTRL_BASE+off, func(s *regs.Sim, addr uint32, old, val uint32) {
			m.ready(GCLK_SOURCE_DFLL48M, true, OSCCTRL_BASE+OSCCTRL_STATUS, OSCCTRL_STATUS_DFLLRDY)
		})
	}
	s.OnWrite(OSCCTRL_BASE+OSCCTRL_DPLLCTRLA, func(s *regs.Sim, addr uint32, old, val uint32) {
		m.ready(GCLK_SOURCE_DPLL96M, val&OSCCTRL_DPLLCTRLA_ENABLE != 0,
			OSCCTRL_BASE+OSCCTRL_DPLLSTATUS, OSCCTRL_DPLLSTATUS_LOCK|OSCCTRL_DPLLSTATUS_CLKRDY)
	})
	s.OnWrite(OSCCTRL_BASE+OSCCTRL_DPLLRATIO, func(s *regs.Sim, addr uint32, old, val uint32) {
		s.Pulse(OSCCTRL_BASE+OSCCTRL_DPLLSYNCBUSY, OSCCTRL_DPLLSYNCBUSY_DPLLRATIO, m.SyncReads)
	})

	for g := uint32(0); g < GCLK_GEN_NUM; g++ {
		mask := uint32(1) << (GCLK_SYNCBUSY_GENCTRL_Pos + g)
		s.OnWrite(GCLK_BASE+GCLK_GENCTRL+4*g, func(s *regs.Sim, addr uint32, old, val uint32) {
			s.Pulse(GCLK_BASE+GCLK_SYNCBUSY, mask, m.SyncReads)
		})
	}

	s.OnWrite(EIC_BASE+EIC_CTRLA, func(s *regs.Sim, addr uint32, old, val uint32) {
		if val&EIC_CTRLA_SWRST != 0 {
			for _, off := range []uint32{EIC_CTRLA, EIC_EVCTRL, EIC_INTENCLR, EIC_INTENSET, EIC_INTFLAG} {
				s.Poke(EIC_BASE+off, 0)
			}
			s.Pulse(EIC_BASE+EIC_SYNCBUSY, EIC_SYNCBUSY_SWRST, m.SyncReads)
			return
		}
		if (old^val)&EIC_CTRLA_ENABLE != 0 {
			s.Pulse(EIC_BASE+EIC_SYNCBUSY, EIC_SYNCBUSY_ENABLE, m.SyncReads)
		}
	})
	// INTENSET/INTENCLR read back the same enable mask.
	s.OnWrite(EIC_BASE+EIC_INTENSET, func(s *regs.Sim, addr uint32, old, val uint32) {
		en := old | val
		s.Poke(EIC_BASE+EIC_INTENSET, en)
		s.Poke(EIC_BASE+EIC_INTENCLR, en)
	})
	s.OnWrite(EIC_BASE+EIC_INTENCLR, func(s *regs.Sim, addr uint32, old, val uint32) {
		en := old &^ val
		s.Poke(EIC_BASE+EIC_INTENSET, en)
		s.Poke(EIC_BASE+EIC_INTENCLR, en)
	})
	// Flags are write-one-to-clear.
	s.OnWrite(EIC_BASE+EIC_INTFLAG, func(s *regs.Sim, addr uint32, old, val uint32) {
		s.Poke(EIC_BASE+EIC_INTFLAG, old&^val)
	})

	timerCtrl := []uint32{TCC0_BASE + TCC_CTRLA}
	timerSync := []uint32{TCC0_BASE + TCC_SYNCBUSY}
	for i := uint32(0); i < TC_INST_NUM; i++ {
		timerCtrl = append(timerCtrl, TC0_BASE+i*TC_STRIDE+TC_CTRLA)
		timerSync = append(timerSync, TC0_BASE+i*TC_STRIDE+TC_SYNCBUSY)
	}
	for i := range timerCtrl {
		sync := timerSync[i]
		s.OnWrite(timerCtrl[i], func(s *regs.Sim, addr uint32, old, val uint32) {
			if (old^val)&TC_CTRLA_ENABLE != 0 {
				s.Pulse(sync, TC_SYNCBUSY_ENABLE, m.SyncReads)
			}
		})
	}
}

// Trigger raises EIC channel ch's interrupt flag, as an edge on its pin would.
func (m *Model) Trigger(ch uint8) {
	a := uint32(EIC_BASE + EIC_INTFLAG)
	m.Sim.Poke(a, m.Sim.Peek(a)|1<<ch)
}
