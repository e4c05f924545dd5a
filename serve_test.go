package main

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/Jon-Bright/samclk/samd"
)

func newTestServer(t *testing.T) *Server {
	m := samd.NewModel(SIM_SYNC_READS, SIM_READY_READS)
	c := samd.New(m.Sim, samd.SAML22, nil)
	if err := c.Init(true, samd.DEFAULT_DFLL48M_FINE_CALIBRATION); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	s, err := NewServer(0, c)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	go s.handleConnections()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestServeCommands(t *testing.T) {
	s := newTestServer(t)
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", s.Addr().(*net.TCPAddr).Port))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)

	tests := []struct {
		line string
		want string
	}{
		{"FREQ osc DFLL48M", "48000000"},
		{"freq system cpu", "96000000"},
		{"FREQ channel 1", "2000000"},
		{"PARENT osc DPLL96M", "osc 7 (DFLL48M)"},
		{"PARENT osc OSC16M", "NONE"},
		{"ENABLED osc XOSC32K", "1"},
		{"CALIB osc OSCULP32K", fmt.Sprint(samd.MODEL_OSCULP32K_CALIB)},
		{"SETCALIB osc OSCULP32K 0x20", "OK"},
		{"CALIB osc OSCULP32K", "32"},
		{"SETCALIB osc OSCULP32K 0x40", "ERR: Error running SETCALIB: -1 calibration value out of range"},
		{"SETCALIB channel 3 1", "ERR: Error running SETCALIB: -2 calibration not supported for this clock"},
		{"FIND_GCLK 8", "2"},
		{"GEN_ENABLE 2 DFLL48M 8", "OK"},
		{"FIND_GCLK 8", "3"},
		{"CONNECT 2 23", "OK"},
		{"FREQ channel 23", "6000000"},
		{"GEN_DISABLE 2", "OK"},
		{"FREQ channel 23", "0"},
		{"DISCONNECT 99 23", "ERR: Error running DISCONNECT: clock generator index out of range: 99"},
		{"DISCONNECT 2 23", "OK"},
		{"ENABLED channel 23", "0"},
		{"TIMER_CLOCKS tc 1 4", "OK"},
		{"FREQ channel 24", "96000000"},
		{"EIC", "0"},
		{"EIC on", "OK"},
		{"EIC", "1"},
		{"GEN_ENABLE 12 DFLL48M 1", "ERR: Error running GEN_ENABLE: clock generator index out of range: 12"},
		{"FREQ bogus 1", `ERR: Error running FREQ: unknown clock kind "bogus"`},
		{"FREQ osc", "ERR: Error running FREQ: want 2 parameters, got 1"},
		{"BLINK", "ERR: Error running BLINK: unknown command: BLINK"},
	}
	for _, tt := range tests {
		fmt.Fprintf(conn, "%s\n", tt.line)
		got, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("Reading reply to %q failed: %v", tt.line, err)
		}
		if got = strings.TrimSpace(got); got != tt.want {
			t.Errorf("Reply to %q, got: %q, want: %q", tt.line, got, tt.want)
		}
	}
}

func TestServeTree(t *testing.T) {
	s := newTestServer(t)
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", s.Addr().(*net.TCPAddr).Port))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)
	fmt.Fprintf(conn, "TREE\n")
	var lines []string
	for {
		l, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("Reading tree failed: %v", err)
		}
		l = strings.TrimRight(l, "\n")
		if l == "." {
			break
		}
		lines = append(lines, l)
	}
	// DFLL48M > GCLK5 > PCH1 > DPLL96M > GCLK0
	want := "        GCLK0 96000000 Hz"
	found := false
	for _, l := range lines {
		if l == want {
			found = true
		}
	}
	if !found {
		t.Errorf("Tree lines, got: %q, want a line %q", lines, want)
	}
	fmt.Fprintf(conn, "QUIT\n")
	if _, err := r.ReadString('\n'); err == nil {
		t.Errorf("Read after QUIT, got: nil error, want: EOF")
	}
}
