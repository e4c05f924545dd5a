// Package board describes the boards a SAM L22 clock tree is brought up on:
// whether a 32kHz crystal is fitted, the DFLL48M fine calibration, how long
// to wait for the hardware and which register backend to use.
package board

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/Jon-Bright/samclk/regs"
	"github.com/Jon-Bright/samclk/samd"
)

const (
	BACKEND_SIM = "sim"
	BACKEND_MEM = "mem"

	DEFAULT_BOARD = "saml22-xplained"
)

var (
	Backends = []string{BACKEND_SIM, BACKEND_MEM}
	Chips    = []string{"saml22"}

	ErrUnknownBoard = errors.New("unknown board")
)

//go:embed boards.yaml
var rawBoards []byte

var builtin Boards

func init() {
	if err := yaml.Unmarshal(rawBoards, &builtin); err != nil {
		panic(fmt.Sprintf("couldn't parse built-in boards: %v", err))
	}
}

type Boards []Board

type Board struct {
	Name     string `yaml:"name"`
	Chip     string `yaml:"chip"`
	Crystal  bool   `yaml:"crystal"`
	DFLLFine uint32 `yaml:"dfllFine"`
	// DPLL overrides whether the chip's DPLL96M is brought up.
	DPLL    *bool         `yaml:"dpll"`
	Timeout time.Duration `yaml:"timeout"`
	Backend string        `yaml:"backend"`
	MemPath string        `yaml:"memPath"`
}

// All returns the built-in boards.
func All() Boards {
	return builtin
}

func (bs Boards) Find(name string) (Board, error) {
	for _, b := range bs {
		if b.Name == name {
			return b, nil
		}
	}
	return Board{}, fmt.Errorf("%w: %s", ErrUnknownBoard, name)
}

// Default returns the board used when none is named.
func Default() Board {
	b, err := builtin.Find(DEFAULT_BOARD)
	if err != nil {
		panic(err)
	}
	return b
}

// Parse reads one board from YAML. Fields left out keep Default's values.
func Parse(data []byte) (Board, error) {
	b := Default()
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Board{}, fmt.Errorf("couldn't parse board: %v", err)
	}
	if err := b.Validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

// Load returns a built-in board by name, or reads one from a YAML file if
// no built-in board has that name.
func Load(nameOrPath string) (Board, error) {
	if nameOrPath == "" {
		return Default(), nil
	}
	if b, err := builtin.Find(nameOrPath); err == nil {
		return b, nil
	}
	data, err := os.ReadFile(nameOrPath)
	if err != nil {
		return Board{}, fmt.Errorf("couldn't read board %s: %v", nameOrPath, err)
	}
	return Parse(data)
}

func (b Board) Validate() error {
	if !slices.Contains(Chips, b.Chip) {
		return fmt.Errorf("board %s: unknown chip %q", b.Name, b.Chip)
	}
	if !slices.Contains(Backends, b.Backend) {
		return fmt.Errorf("board %s: unknown backend %q, want one of %v", b.Name, b.Backend, Backends)
	}
	if b.Backend == BACKEND_MEM && b.MemPath == "" {
		return fmt.Errorf("board %s: mem backend needs memPath", b.Name)
	}
	if b.DFLLFine > samd.DFLL48M_FINE_MAX {
		return fmt.Errorf("board %s: dfllFine %d out of range", b.Name, b.DFLLFine)
	}
	if b.Timeout < 0 {
		return fmt.Errorf("board %s: negative timeout", b.Name)
	}
	return nil
}

// Variant returns the chip variant, with the DPLL override applied.
func (b Board) Variant() samd.Variant {
	v := samd.SAML22
	if b.DPLL != nil {
		v.HasDPLL = *b.DPLL
	}
	return v
}

// Poller returns the poller for the board's timeout. A zero timeout waits
// forever.
func (b Board) Poller() *regs.Poller {
	return &regs.Poller{Timeout: b.Timeout}
}
