// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/Akiko97/simd-asm-code-visualization/config"
	"github.com/Akiko97/simd-asm-code-visualization/emulator"
	"github.com/Akiko97/simd-asm-code-visualization/translate"
	"github.com/Akiko97/simd-asm-code-visualization/web"
)

var f = translate.From

type options struct {
	config  string
	verbose bool
	animate bool
}

// setup builds an emulator from the configuration file, or the demo, and
// applies the command line overrides. A listing given as an argument
// replaces the configured program.
func (opt *options) setup(cmd *cobra.Command, args []string) (emu *emulator.Emulator, cfg *config.Config, err error) {
	cfg = config.Default()
	if len(opt.config) != 0 {
		cfg, err = config.Load(opt.config)
		if err != nil {
			return
		}
	}

	emu = emulator.NewEmulator()
	emu.SetVerbose(opt.verbose)

	err = cfg.Apply(emu)
	if err != nil {
		return
	}

	if cmd.Flags().Changed("animate") {
		emu.Animate = opt.animate
	}

	if len(args) != 0 {
		var inf *os.File
		inf, err = os.Open(args[0])
		if err != nil {
			return
		}
		defer inf.Close()

		err = emu.Assemble(inf)
		if err != nil {
			err = fmt.Errorf("%v: %w", args[0], err)
			return
		}
	}

	return
}

func runCommand(opt *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run [listing.s]",
		Short: f("Run a program headless and print the registers"),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			emu, cfg, err := opt.setup(cmd, args)
			if err != nil {
				return
			}

			err = emu.Run(cfg.Animation.Dt())
			fmt.Fprint(cmd.OutOrStdout(), emu.Cpu.String())
			return
		},
	}
}

func serveCommand(opt *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [listing.s]",
		Short: f("Serve the visualizer to a browser"),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			emu, cfg, err := opt.setup(cmd, args)
			if err != nil {
				return
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := web.NewServer(emu, cfg.Animation.FrameTime())
			srv.Verbose = opt.verbose
			srv.Hub.Verbose = opt.verbose
			go srv.Run(ctx)

			httpd := &http.Server{Addr: addr, Handler: srv.Handler()}
			go func() {
				<-ctx.Done()
				shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				httpd.Shutdown(shutdown)
			}()

			translate.Fprint(cmd.ErrOrStderr(), "simdviz: serving on http://%v\n", addr)
			err = httpd.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			return
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", f("HTTP listen address"))
	return cmd
}

func replCommand(opt *options) *cobra.Command {
	return &cobra.Command{
		Use:   "repl [listing.s]",
		Short: f("Execute instructions interactively"),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			emu, cfg, err := opt.setup(cmd, args)
			if err != nil {
				return
			}

			home, _ := os.UserHomeDir()
			rl, err := readline.NewEx(&readline.Config{
				Prompt:      "simd> ",
				HistoryFile: filepath.Join(home, ".simdviz_history"),
				Stdout:      cmd.OutOrStdout(),
			})
			if err != nil {
				return
			}
			defer rl.Close()

			translate.Fprint(rl.Stdout(), "Type an instruction, or .help\n")
			return repl(emu, cfg.Animation.Dt(), rl.Readline, rl.Stdout())
		},
	}
}

// repl reads lines until end of input or .quit.
func repl(emu *emulator.Emulator, dt float32, readLine func() (string, error), out io.Writer) (err error) {
	for {
		var line string
		line, err = readLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			err = nil
			return
		}
		if err != nil {
			return
		}

		line = strings.TrimSpace(line)
		if line == ".quit" || line == "exit" {
			return
		}

		rerr := replLine(emu, dt, line, out)
		if rerr != nil {
			translate.Fprint(out, "error: %v\n", rerr)
		}
	}
}

func replLine(emu *emulator.Emulator, dt float32, line string, out io.Writer) (err error) {
	switch line {
	case "":
		return
	case ".help":
		translate.Fprint(out, ".step .run .reset .regs .layout .quit, or an instruction\n")
		return
	case ".regs":
		fmt.Fprint(out, emu.Cpu.String())
		return
	case ".layout":
		fmt.Fprint(out, emu.Visual.LayoutTree())
		return
	case ".reset":
		emu.Reset()
		return emu.Settle(dt)
	case ".run":
		err = emu.Run(dt)
		if err == nil {
			fmt.Fprint(out, emu.Cpu.String())
		}
		return
	case ".step":
		var done bool
		done, err = emu.Step()
		if err != nil {
			return
		}
		if done {
			translate.Fprint(out, "end of program\n")
			return
		}
		translate.Fprint(out, "line %d\n", emu.LineNo())
		err = emu.Settle(dt)
	default:
		err = emu.Execute(line)
		if err != nil {
			return
		}
		err = emu.Settle(dt)
	}

	if err == nil {
		fmt.Fprint(out, emu.Visual.LayoutTree())
	}
	return
}

func layoutCommand(opt *options) *cobra.Command {
	var steps int
	var frames int

	cmd := &cobra.Command{
		Use:   "layout [listing.s]",
		Short: f("Print the layout tree part way through a program"),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			emu, cfg, err := opt.setup(cmd, args)
			if err != nil {
				return
			}

			return layout(emu, cfg.Animation.Dt(), steps, frames, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 0, f("Instructions to complete first"))
	cmd.Flags().IntVar(&frames, "frames", 2, f("Frames to run into the next instruction"))
	return cmd
}

// layout completes steps instructions, then starts the next one and prints
// the layout after frames frames.
func layout(emu *emulator.Emulator, dt float32, steps int, frames int, out io.Writer) (err error) {
	for range steps {
		var done bool
		done, err = emu.Step()
		if err != nil || done {
			return
		}
		err = emu.Settle(dt)
		if err != nil {
			return
		}
	}

	_, err = emu.Step()
	if err != nil {
		return
	}
	for range frames {
		err = emu.Tick(dt)
		if err != nil {
			return
		}
	}

	translate.Fprint(out, "line %d\n", emu.LineNo())
	fmt.Fprint(out, emu.Visual.LayoutTree())
	return
}

func rootCommand() *cobra.Command {
	opt := &options{}

	root := &cobra.Command{
		Use:           "simdviz",
		Short:         f("Animated SIMD assembly visualizer"),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVarP(&opt.config, "config", "c", "", f("TOML configuration file"))
	root.PersistentFlags().BoolVarP(&opt.verbose, "verbose", "v", false, f("Verbose mode"))
	root.PersistentFlags().BoolVar(&opt.animate, "animate", true, f("Animate steps"))

	root.AddCommand(runCommand(opt), serveCommand(opt), replCommand(opt), layoutCommand(opt))
	return root
}

func main() {
	err := rootCommand().Execute()
	if err != nil {
		log.Fatalf("simdviz: %v", err)
	}
}
