package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/hackrf/cmd/hackrfctl/app"
)

var (
	logLevel string
	serial   string

	rxConfigPath string
	rxConfig     app.RxConfig
	rxLNAGain    int
	rxVGAGain    int

	waterfallConfig app.WaterfallConfig
)

var rootCmd = &cobra.Command{
	Use:   "hackrfctl",
	Short: "Control, capture and inspect a HackRF One.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVarP(&serial, "device", "d", "", "Serial number of the board to use")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Print board identity and firmware versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Info(newLogger(), serial)
		},
	})

	rxCmd := &cobra.Command{
		Use:   "rx",
		Short: "Receive IQ samples into a capture database or raw file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &rxConfig
			if rxConfigPath != "" {
				var err error
				if cfg, err = app.LoadRxConfig(rxConfigPath); err != nil {
					return fmt.Errorf("loading configuration: %w", err)
				}
			} else {
				if cmd.Flags().Changed("lna-gain") {
					cfg.LNAGain = &rxLNAGain
				}
				if cmd.Flags().Changed("vga-gain") {
					cfg.VGAGain = &rxVGAGain
				}
			}
			if serial != "" {
				cfg.Serial = serial
			}
			return app.Rx(signalContext(), cfg, newLogger())
		},
	}
	rxCmd.Flags().StringVarP(&rxConfigPath, "config", "c", "", "Path to a YAML capture configuration")
	rxCmd.Flags().Uint64VarP(&rxConfig.Frequency, "frequency", "f", 0, "Center frequency in Hz")
	rxCmd.Flags().Uint32VarP(&rxConfig.SampleRate, "sample-rate", "s", 0, "Sample rate in Hz")
	rxCmd.Flags().Uint32VarP(&rxConfig.FilterBandwidth, "bandwidth", "b", 0, "Baseband filter bandwidth in Hz (0 for automatic)")
	rxCmd.Flags().IntVarP(&rxLNAGain, "lna-gain", "l", 0, "LNA (IF) gain, 0-40 dB in 8 dB steps")
	rxCmd.Flags().IntVarP(&rxVGAGain, "vga-gain", "g", 0, "VGA (baseband) gain, 0-62 dB in 2 dB steps")
	rxCmd.Flags().BoolVarP(&rxConfig.EnableAmp, "amp", "a", false, "Enable the RX RF amplifier")
	rxCmd.Flags().BoolVarP(&rxConfig.AntennaPower, "antenna-power", "p", false, "Enable antenna port power")
	rxCmd.Flags().StringVarP(&rxConfig.Output.Database, "output", "o", "", "Capture database to record into")
	rxCmd.Flags().StringVar(&rxConfig.Output.RawFile, "raw", "", "Raw iq8 file to record into")
	rootCmd.AddCommand(rxCmd)

	waterfallCmd := &cobra.Command{
		Use:   "waterfall",
		Short: "Render a recorded capture session to a PNG waterfall",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Waterfall(context.Background(), &waterfallConfig, newLogger())
		},
	}
	waterfallCmd.Flags().StringVar(&waterfallConfig.Database, "db", "", "Capture database to read")
	waterfallCmd.Flags().Int64Var(&waterfallConfig.SessionID, "session", 1, "Session ID to render")
	waterfallCmd.Flags().StringVarP(&waterfallConfig.Output, "output", "o", "waterfall.png", "Output PNG path")
	waterfallCmd.Flags().IntVar(&waterfallConfig.FFTSize, "fft-size", 1024, "FFT size (power of two)")
	waterfallCmd.Flags().StringVar(&waterfallConfig.FontPath, "font", "", "TTF font for axis labels (built-in bitmap font when empty)")
	rootCmd.AddCommand(waterfallCmd)
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func signalContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
