package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jon-Bright/samclk/samd"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer clock queries over a line-oriented TCP protocol",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, closer, err := openClocks(cmd, false)
		if err != nil {
			return err
		}
		defer closer()
		s, err := NewServer(port, c)
		if err != nil {
			return fmt.Errorf("couldn't create server: %v", err)
		}
		s.handleConnections()
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&port, "port", 24601, "The port that the server should listen to")
}

type Server struct {
	c   *samd.Clocks
	eic *samd.EIC
	l   net.Listener
}

func NewServer(port int, c *samd.Clocks) (*Server, error) {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	log.Printf("Listening on %v", l.Addr())
	return &Server{c, samd.NewEIC(c), l}, nil
}

func (s *Server) Addr() net.Addr {
	return s.l.Addr()
}

func (s *Server) Close() error {
	return s.l.Close()
}

// fields splits parms and checks there are n of them.
func fields(parms string, n int) ([]string, error) {
	f := strings.Fields(parms)
	if len(f) != n {
		return nil, fmt.Errorf("want %d parameters, got %d", n, len(f))
	}
	return f, nil
}

func parseClockParms(parms string, extra int) (samd.Kind, uint8, []string, error) {
	f, err := fields(parms, 2+extra)
	if err != nil {
		return 0, 0, nil, err
	}
	k, i, err := parseClock(f[0], f[1])
	return k, i, f[2:], err
}

func boolReply(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// command runs one protocol command and returns its reply, without the
// trailing newline.
func (s *Server) command(cmd, parms string) (string, error) {
	switch cmd {
	case "FREQ":
		k, i, _, err := parseClockParms(parms, 0)
		if err != nil {
			return "", err
		}
		return strconv.FormatUint(uint64(s.c.Frequency(k, i)), 10), nil
	case "PARENT":
		k, i, _, err := parseClockParms(parms, 0)
		if err != nil {
			return "", err
		}
		pk, pi, ok := s.c.Parent(k, i)
		if !ok {
			return "NONE", nil
		}
		return clockName(pk, pi), nil
	case "ENABLED":
		k, i, _, err := parseClockParms(parms, 0)
		if err != nil {
			return "", err
		}
		return boolReply(s.c.Enabled(k, i)), nil
	case "CALIB":
		k, i, _, err := parseClockParms(parms, 0)
		if err != nil {
			return "", err
		}
		return strconv.FormatUint(uint64(s.c.Calibration(k, i)), 10), nil
	case "SETCALIB":
		k, i, f, err := parseClockParms(parms, 1)
		if err != nil {
			return "", err
		}
		v, err := strconv.ParseUint(f[0], 0, 32)
		if err != nil {
			return "", fmt.Errorf("error parsing value: %v", err)
		}
		if err := s.c.SetCalibration(k, i, uint32(v)); err != nil {
			return "", fmt.Errorf("%d %v", samd.ErrorCode(err), err)
		}
		return "OK", nil
	case "GEN_ENABLE":
		f, err := fields(parms, 3)
		if err != nil {
			return "", err
		}
		g, err := parseUint8(f[0])
		if err != nil {
			return "", err
		}
		_, src, err := parseClock("osc", f[1])
		if err != nil {
			return "", err
		}
		div, err := strconv.ParseUint(f[2], 0, 16)
		if err != nil {
			return "", fmt.Errorf("error parsing divisor: %v", err)
		}
		return "OK", s.c.EnableClockGenerator(g, src, uint16(div))
	case "GEN_DISABLE":
		g, err := parseUint8(parms)
		if err != nil {
			return "", err
		}
		return "OK", s.c.DisableClockGenerator(g)
	case "FIND_GCLK":
		div, err := strconv.ParseUint(parms, 0, 16)
		if err != nil {
			return "", fmt.Errorf("error parsing divisor: %v", err)
		}
		g, err := s.c.FindFreeGCLK(uint16(div))
		if err != nil {
			return "", err
		}
		return strconv.Itoa(int(g)), nil
	case "CONNECT", "DISCONNECT":
		f, err := fields(parms, 2)
		if err != nil {
			return "", err
		}
		g, err := parseUint8(f[0])
		if err != nil {
			return "", err
		}
		p, err := parseUint8(f[1])
		if err != nil {
			return "", err
		}
		if cmd == "CONNECT" {
			return "OK", s.c.ConnectGCLKToPeripheral(g, p)
		}
		return "OK", s.c.DisconnectGCLKFromPeripheral(g, p)
	case "TIMER_CLOCKS":
		f, err := fields(parms, 3)
		if err != nil {
			return "", err
		}
		i, err := parseUint8(f[1])
		if err != nil {
			return "", err
		}
		g, err := parseUint8(f[2])
		if err != nil {
			return "", err
		}
		return "OK", s.c.TurnOnTimerClocks(strings.ToUpper(f[0]) == "TC", i, g)
	case "EIC":
		switch strings.ToUpper(parms) {
		case "":
			return boolReply(s.eic.Enabled()), nil
		case "ON":
			return "OK", s.eic.TurnOn()
		case "OFF":
			return "OK", s.eic.TurnOff()
		}
		return "", fmt.Errorf("unknown EIC state: %s", parms)
	case "TREE":
		var b bytes.Buffer
		if err := printTree(&b, s.c.Graph()); err != nil {
			return "", err
		}
		// A lone dot ends a multi-line reply
		return b.String() + ".", nil
	}
	return "", fmt.Errorf("unknown command: %s", cmd)
}

func (s *Server) handleConnection(c net.Conn) {
	log.Printf("Handling connection from %v", c.RemoteAddr())
	defer c.Close()
	r := bufio.NewReader(c)
	w := bufio.NewWriter(c)
	for {
		l, err := r.ReadString('\n')
		if err == io.EOF {
			log.Printf("EOF for connection %v", c.RemoteAddr())
			return
		}
		if err != nil {
			log.Printf("Error reading string for connection %v: %v", c.RemoteAddr(), err)
			return
		}
		l = strings.TrimSpace(l)
		log.Printf("Got line '%s'", l)
		t := strings.SplitN(l, " ", 2)
		cmd := strings.ToUpper(t[0])
		parms := ""
		if len(t) > 1 {
			parms = strings.TrimSpace(t[1])
		}
		if cmd == "QUIT" {
			return
		}
		reply, err := s.command(cmd, parms)
		if err != nil {
			es := fmt.Sprintf("Error running %s: %v", cmd, err)
			log.Print(es)
			reply = "ERR: " + es
		}
		w.WriteString(reply + "\n")
		if err := w.Flush(); err != nil {
			log.Printf("error writing reply: %v", err)
			return
		}
	}
}

func (s *Server) handleConnections() {
	for {
		conn, err := s.l.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			log.Printf("Error accepting connection: %v", err)
			continue
		}
		go s.handleConnection(conn)
	}
}
