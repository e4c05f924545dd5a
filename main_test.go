package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Jon-Bright/samclk/samd"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		kind, index string
		k           samd.Kind
		i           uint8
		ok          bool
	}{
		{"osc", "dfll48m", samd.Oscillator, samd.GCLK_SOURCE_DFLL48M, true},
		{"0", "3", samd.Oscillator, samd.GCLK_SOURCE_OSCULP32K, true},
		{"channel", "23", samd.Channel, samd.TC0_GCLK_ID, true},
		{"1", "0x16", samd.Channel, samd.TCC0_GCLK_ID, true},
		{"system", "cpu", samd.System, samd.SYSTEM_CPU, true},
		{"sys", "RTC", samd.System, samd.SYSTEM_RTC, true},
		{"2", "0", samd.System, samd.SYSTEM_TICK, true},
		{"osc", "nope", 0, 0, false},
		{"channel", "256", 0, 0, false},
		{"pll", "1", 0, 0, false},
	}
	for _, tt := range tests {
		k, i, err := parseClock(tt.kind, tt.index)
		if (err == nil) != tt.ok {
			t.Errorf("parseClock(%s, %s) error, got: %v, want ok: %v", tt.kind, tt.index, err, tt.ok)
			continue
		}
		if tt.ok && (k != tt.k || i != tt.i) {
			t.Errorf("parseClock(%s, %s), got: %v %d, want: %v %d", tt.kind, tt.index, k, i, tt.k, tt.i)
		}
	}
}

func TestCommands(t *testing.T) {
	// Flags persist between runs, so each case sets what it depends on.
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"freq", "osc", "DPLL96M"}, "96000000\n"},
		{[]string{"freq", "--crystal=true", "system", "rtc"}, "32768\n"},
		{[]string{"parent", "--crystal=true", "system", "rtc"}, "osc 5 (XOSC32K)\n"},
		{[]string{"parent", "--crystal=false", "system", "rtc"}, "osc 3 (OSCULP32K)\n"},
		{[]string{"parent", "osc", "DFLL48M"}, "none\n"},
		{[]string{"calib", "get", "system", "tick"}, "0x1\n"},
		{[]string{"calib", "set", "system", "tick", "0x1000"}, "0x1000\n"},
		{[]string{"calib", "get", "--fine=300", "osc", "DFLL48M"}, "0x12c\n"},
		{[]string{"gen", "free", "300"}, ""},
		{[]string{"gen", "free", "10"}, "2\n"},
		{[]string{"--board", "saml22-nodpll", "freq", "system", "cpu"}, "48000000\n"},
		{[]string{"--board", "saml22-xplained", "freq", "system", "cpu"}, "96000000\n"},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&bytes.Buffer{})
		rootCmd.SetArgs(tt.args)
		err := rootCmd.Execute()
		if tt.want == "" {
			if err == nil {
				t.Errorf("%v, got: nil error, want: error", tt.args)
			}
			continue
		}
		if err != nil {
			t.Errorf("%v failed: %v", tt.args, err)
			continue
		}
		if got := out.String(); got != tt.want {
			t.Errorf("%v, got: %q, want: %q", tt.args, got, tt.want)
		}
	}
}

func TestInitCommandListsGenerators(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--board", "saml22-xplained", "init"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 {
		t.Errorf("Generator lines, got: %d, want: 5", len(lines))
	}
	if !strings.HasPrefix(lines[0], "GCLK0  DPLL96M") {
		t.Errorf("First generator line, got: %q, want: GCLK0 from DPLL96M", lines[0])
	}
}

func TestPrintTreeLoop(t *testing.T) {
	m := samd.NewModel(1, 1)
	c := samd.New(m.Sim, samd.SAML22, nil)
	if err := c.Init(true, samd.DEFAULT_DFLL48M_FINE_CALIBRATION); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := c.EnableClockGenerator(samd.DPLL_REF_GCLK, samd.GCLK_SOURCE_DPLL96M, 1); err != nil {
		t.Fatalf("EnableClockGenerator failed: %v", err)
	}
	var out bytes.Buffer
	if err := printTree(&out, c.Graph()); err != nil {
		t.Fatalf("printTree failed: %v", err)
	}
	if !strings.Contains(out.String(), "reference loop") || !strings.Contains(out.String(), "GCLK5") {
		t.Errorf("Tree with a loop, got: %q, want: loop error and GCLK5", out.String())
	}
}
