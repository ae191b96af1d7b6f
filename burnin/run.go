package main

import (
	"fmt"
	"image/png"
	"log"
	"os"
	"os/signal"

	"github.com/Tamagotono/CycleTester/pkg/config"
	"github.com/Tamagotono/CycleTester/pkg/display"
	"github.com/Tamagotono/CycleTester/pkg/meter"
	"github.com/Tamagotono/CycleTester/pkg/output"
	"github.com/Tamagotono/CycleTester/pkg/runner"
	"github.com/Tamagotono/CycleTester/pkg/ui"
	"github.com/spf13/cobra"
	"tinygo.org/x/tinyfont"
)

var runFlags struct {
	mock    bool
	port    string
	cycles  int
	average int
	png     string
}

var runCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a test headless",
	Long: `Run a test without operator prompts and print a timing audit of the relay.

The output is powered down when the test ends unless the test holds power.
Interrupt (Ctrl-C) stops at the next phase boundary.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if runFlags.port != "" {
			cfg.Serial.Port = runFlags.port
		}

		reg := config.NewRegistry(volume(), cfg.Storage)
		if _, err := reg.Scan(); err != nil {
			return err
		}
		tc, err := reg.Load(args[0])
		if err != nil {
			return err
		}
		if runFlags.cycles > 0 {
			tc.Cycles = runFlags.cycles
		}

		raw, closeRelay, err := openRelay(cfg, runFlags.mock, tc.IsInverted(cfg.Output))
		if err != nil {
			return err
		}
		defer closeRelay()

		audit := meter.New(cfg)
		chain := meter.Attach(raw, audit, runFlags.average)

		fb := display.NewFramebuffer(320, 240)
		screen := ui.NewTestScreen(display.NewTiny(fb, &tinyfont.TomThumb), ui.DefaultFonts())

		progress := newProgress(cmd.OutOrStdout(), tc.Cycles)
		r, err := runner.FromConfig(chain.Output, tc, cfg.Output,
			runner.WithScreen(screen),
			runner.WithTiming(cfg.Display.RefreshInterval, cfg.Display.Margin),
			runner.WithEarlyFire(cfg.Display.EarlyFire),
			runner.WithObserver(progress.Update),
		)
		if err != nil {
			chain.Close()
			return err
		}
		audit.SetExpect(meter.ExpectSpec(r.Spec()))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		res, runErr := r.Run(ctx)
		if runErr != nil || !r.HoldsPower() {
			if err := r.Output().SetLow(); err != nil {
				log.Printf("Failed to power down: %v", err)
			}
		}
		if n := chain.Close(); n > 0 {
			log.Printf("Audit missed %d output writes", n)
		}
		progress.Done(res)

		fmt.Fprintln(cmd.OutOrStdout(), formatReport(audit.Report()))
		if runErr == nil && r.HoldsPower() {
			fmt.Fprintln(cmd.OutOrStdout(), errorStyle.Render("Output left energized"))
		}

		if runFlags.png != "" {
			if err := writePNG(runFlags.png, fb); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), grayStyle.Render("Screen saved to "+runFlags.png))
		}
		return runErr
	},
}

func init() {
	runCmd.Flags().BoolVar(&runFlags.mock, "mock", false, "Use mocked relay instead of serial port")
	runCmd.Flags().StringVarP(&runFlags.port, "port", "p", "", "Serial relay port override")
	runCmd.Flags().IntVar(&runFlags.cycles, "cycles", 0, "Override the cycle count of the test")
	runCmd.Flags().IntVar(&runFlags.average, "average-phases", 0, "Number of phases to average in the audit (0 = disabled)")
	runCmd.Flags().StringVar(&runFlags.png, "png", "", "Save the final tester screen as a PNG")
}

// openRelay returns the raw output, released for the given polarity, and a
// func that closes it.
func openRelay(cfg *config.Config, mock, inverted bool) (output.Output, func(), error) {
	if mock {
		m := output.NewMock()
		if err := output.Polarity(m, inverted).SetLow(); err != nil {
			return nil, nil, err
		}
		return m, func() {}, nil
	}
	s := output.NewSerial(cfg.Serial.Port, cfg.Serial.BaudRate)
	s.IdleHigh = inverted
	if err := s.Connect(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", cfg.Serial.Port, err)
	}
	return s, func() {
		if err := s.Close(); err != nil {
			log.Printf("Failed to close relay port: %v", err)
		}
	}, nil
}

func writePNG(path string, fb *display.Framebuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, fb.Snapshot()); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
