package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Jon-Bright/samclk/samd"
)

var (
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Bring up the clock tree and list the generators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, closer, err := openClocks(cmd, true)
			if err != nil {
				return err
			}
			defer closer()
			return listGenerators(cmd.OutOrStdout(), c)
		},
	}

	freqCmd = &cobra.Command{
		Use:   "freq KIND INDEX",
		Short: "Print a clock's frequency in Hz, 0 if unknown",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, i, err := parseClock(args[0], args[1])
			if err != nil {
				return err
			}
			c, closer, err := openClocks(cmd, false)
			if err != nil {
				return err
			}
			defer closer()
			fmt.Fprintln(cmd.OutOrStdout(), c.Frequency(k, i))
			return nil
		},
	}

	parentCmd = &cobra.Command{
		Use:   "parent KIND INDEX",
		Short: "Print the oscillator a clock is fed from",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, i, err := parseClock(args[0], args[1])
			if err != nil {
				return err
			}
			c, closer, err := openClocks(cmd, false)
			if err != nil {
				return err
			}
			defer closer()
			pk, pi, ok := c.Parent(k, i)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "none")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), clockName(pk, pi))
			return nil
		},
	}

	calibCmd = &cobra.Command{
		Use:   "calib",
		Short: "Read or write calibration values",
	}

	calibGetCmd = &cobra.Command{
		Use:   "get KIND INDEX",
		Short: "Print a clock's calibration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, i, err := parseClock(args[0], args[1])
			if err != nil {
				return err
			}
			c, closer, err := openClocks(cmd, false)
			if err != nil {
				return err
			}
			defer closer()
			fmt.Fprintf(cmd.OutOrStdout(), "%#x\n", c.Calibration(k, i))
			return nil
		},
	}

	calibSetCmd = &cobra.Command{
		Use:   "set KIND INDEX VALUE",
		Short: "Write a clock's calibration value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, i, err := parseClock(args[0], args[1])
			if err != nil {
				return err
			}
			v, err := strconv.ParseUint(args[2], 0, 32)
			if err != nil {
				return fmt.Errorf("couldn't parse value %q: %v", args[2], err)
			}
			c, closer, err := openClocks(cmd, false)
			if err != nil {
				return err
			}
			defer closer()
			if err := c.SetCalibration(k, i, uint32(v)); err != nil {
				return fmt.Errorf("couldn't set calibration of %s (code %d): %w", clockName(k, i), samd.ErrorCode(err), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%#x\n", c.Calibration(k, i))
			return nil
		},
	}

	genCmd = &cobra.Command{
		Use:   "gen",
		Short: "Manage generic clock generators",
	}

	genEnableCmd = &cobra.Command{
		Use:   "enable GEN SOURCE DIVISOR",
		Short: "Feed a generator from an oscillator",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := parseUint8(args[0])
			if err != nil {
				return err
			}
			_, src, err := parseClock("osc", args[1])
			if err != nil {
				return err
			}
			div, err := strconv.ParseUint(args[2], 0, 16)
			if err != nil {
				return fmt.Errorf("couldn't parse divisor %q: %v", args[2], err)
			}
			c, closer, err := openClocks(cmd, false)
			if err != nil {
				return err
			}
			defer closer()
			if err := c.EnableClockGenerator(g, src, uint16(div)); err != nil {
				return fmt.Errorf("couldn't enable generator %d: %w", g, err)
			}
			return listGenerators(cmd.OutOrStdout(), c)
		},
	}

	genDisableCmd = &cobra.Command{
		Use:   "disable GEN",
		Short: "Disable a generator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := parseUint8(args[0])
			if err != nil {
				return err
			}
			c, closer, err := openClocks(cmd, false)
			if err != nil {
				return err
			}
			defer closer()
			if err := c.DisableClockGenerator(g); err != nil {
				return fmt.Errorf("couldn't disable generator %d: %w", g, err)
			}
			return listGenerators(cmd.OutOrStdout(), c)
		},
	}

	genFreeCmd = &cobra.Command{
		Use:   "free DIVISOR",
		Short: "Print the lowest free generator able to divide by DIVISOR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			div, err := strconv.ParseUint(args[0], 0, 16)
			if err != nil {
				return fmt.Errorf("couldn't parse divisor %q: %v", args[0], err)
			}
			c, closer, err := openClocks(cmd, false)
			if err != nil {
				return err
			}
			defer closer()
			g, err := c.FindFreeGCLK(uint16(div))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), g)
			return nil
		},
	}

	treeCmd = &cobra.Command{
		Use:   "tree",
		Short: "Print the clock tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, closer, err := openClocks(cmd, false)
			if err != nil {
				return err
			}
			defer closer()
			return printTree(cmd.OutOrStdout(), c.Graph())
		},
	}
)

func init() {
	calibCmd.AddCommand(calibGetCmd, calibSetCmd)
	genCmd.AddCommand(genEnableCmd, genDisableCmd, genFreeCmd)
}

func listGenerators(w io.Writer, c *samd.Clocks) error {
	for g := uint8(0); g < samd.GCLK_GEN_NUM; g++ {
		cfg, err := c.Generator(g)
		if err != nil {
			return err
		}
		if !cfg.Enabled {
			continue
		}
		fmt.Fprintf(w, "GCLK%-2d %-9s /%-5d %d Hz\n", g, samd.OscillatorName(cfg.Source), cfg.Divisor, c.GeneratorFrequency(g))
	}
	return nil
}

// printTree prints every clock under its parent, roots first. Clocks in a
// reference loop have no root and are listed after the error.
func printTree(w io.Writer, gr *samd.Graph) error {
	_, loopErr := gr.Order()
	seen := map[int64]bool{}
	var walk func(n *samd.ClockNode, depth int)
	walk = func(n *samd.ClockNode, depth int) {
		if seen[n.ID()] {
			return
		}
		seen[n.ID()] = true
		state := ""
		if !n.Enabled {
			state = " (off)"
		}
		fmt.Fprintf(w, "%*s%s %d Hz%s\n", 2*depth, "", n.Name, n.Freq, state)
		for _, ch := range gr.Children(n.ID()) {
			walk(ch, depth+1)
		}
	}
	for _, r := range gr.Roots() {
		walk(r, 0)
	}
	if loopErr != nil {
		fmt.Fprintf(w, "%v:\n", loopErr)
		for _, n := range gr.Nodes() {
			walk(n, 1)
		}
	}
	return nil
}
