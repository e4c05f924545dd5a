package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jon-Bright/samclk/board"
	"github.com/Jon-Bright/samclk/regs"
	"github.com/Jon-Bright/samclk/samd"
)

// Sim backends come up with the model's default timings.
const (
	SIM_SYNC_READS  = 2
	SIM_READY_READS = 4
)

var (
	boardName string
	backend   string
	timeout   time.Duration
	crystal   bool
	dfllFine  uint32

	rootCmd = &cobra.Command{
		Use:   "samclk",
		Short: "Bring up and inspect the SAM L22 clock tree",
		Long: "samclk brings up the clock tree of a SAM L22 microcontroller and answers " +
			"questions about it: frequencies, parents, calibration and generator allocation. " +
			"It runs against a simulated chip or a memory-mapped register window.",
		SilenceUsage: true,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&boardName, "board", board.DEFAULT_BOARD, "Built-in board name or path to a board YAML file")
	pf.StringVar(&backend, "backend", "", "Register backend, one of sim, mem. Overrides the board.")
	pf.DurationVar(&timeout, "timeout", 0, "How long to wait for hardware flags, 0 to wait forever. Overrides the board.")
	pf.BoolVar(&crystal, "crystal", false, "Whether a 32kHz crystal is fitted. Overrides the board.")
	pf.Uint32Var(&dfllFine, "fine", samd.DEFAULT_DFLL48M_FINE_CALIBRATION, "DFLL48M fine calibration. Overrides the board.")

	rootCmd.AddCommand(initCmd, freqCmd, parentCmd, calibCmd, genCmd, treeCmd, serveCmd)
}

// loadBoard applies the command-line overrides to the selected board.
func loadBoard(cmd *cobra.Command) (board.Board, error) {
	b, err := board.Load(boardName)
	if err != nil {
		return board.Board{}, err
	}
	fs := cmd.Flags()
	if fs.Changed("backend") {
		b.Backend = backend
	}
	if fs.Changed("timeout") {
		b.Timeout = timeout
	}
	if fs.Changed("crystal") {
		b.Crystal = crystal
	}
	if fs.Changed("fine") {
		b.DFLLFine = dfllFine
	}
	if err := b.Validate(); err != nil {
		return board.Board{}, err
	}
	return b, nil
}

// openClocks returns a clock manager for the board's register backend. A
// simulated chip starts from reset, so it is always brought up first; a
// memory-mapped chip is only brought up if bringUp is set.
func openClocks(cmd *cobra.Command, bringUp bool) (*samd.Clocks, func(), error) {
	b, err := loadBoard(cmd)
	if err != nil {
		return nil, nil, err
	}
	var r regs.File
	closer := func() {}
	switch b.Backend {
	case board.BACKEND_SIM:
		r = samd.NewModel(SIM_SYNC_READS, SIM_READY_READS).Sim
		bringUp = true
	case board.BACKEND_MEM:
		m, err := regs.OpenMem(b.MemPath, samd.Regions)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't open registers: %v", err)
		}
		r = m
		closer = func() {
			if err := m.Close(); err != nil {
				log.Printf("Error unmapping registers: %v", err)
			}
		}
	}
	c := samd.New(r, b.Variant(), b.Poller())
	if bringUp {
		start := time.Now()
		if err := c.Init(b.Crystal, b.DFLLFine); err != nil {
			closer()
			return nil, nil, fmt.Errorf("couldn't bring up clocks on %s: %w", b.Name, err)
		}
		log.Printf("Clock tree on %s up after %v", b.Name, time.Since(start))
	}
	return c, closer, nil
}

var systemNames = map[string]uint8{
	"tick":    samd.SYSTEM_TICK,
	"systick": samd.SYSTEM_TICK,
	"cpu":     samd.SYSTEM_CPU,
	"rtc":     samd.SYSTEM_RTC,
}

func parseUint8(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("couldn't parse %q: %v", s, err)
	}
	return uint8(v), nil
}

// parseClock parses a clock named as KIND INDEX, where KIND is osc, channel
// or system (or 0, 1, 2) and INDEX is a number or, for oscillators and
// system clocks, a name.
func parseClock(kind, index string) (samd.Kind, uint8, error) {
	var k samd.Kind
	switch strings.ToLower(kind) {
	case "osc", "oscillator", "0":
		k = samd.Oscillator
		for i := uint8(0); i <= samd.GCLK_SOURCE_DPLL96M; i++ {
			if strings.EqualFold(samd.OscillatorName(i), index) {
				return k, i, nil
			}
		}
	case "channel", "ch", "1":
		k = samd.Channel
	case "system", "sys", "2":
		k = samd.System
		if i, ok := systemNames[strings.ToLower(index)]; ok {
			return k, i, nil
		}
	default:
		return 0, 0, fmt.Errorf("unknown clock kind %q", kind)
	}
	i, err := parseUint8(index)
	return k, i, err
}

func clockName(k samd.Kind, i uint8) string {
	if k == samd.Oscillator {
		return fmt.Sprintf("%v %d (%s)", k, i, samd.OscillatorName(i))
	}
	return fmt.Sprintf("%v %d", k, i)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
