// lc3 runs LC-3 object files in a software emulator of the machine.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/moynihan/lc3/internal/log"
	"github.com/moynihan/lc3/internal/tty"
	"github.com/moynihan/lc3/internal/vm"
	"github.com/spf13/cobra"
)

// errNoImage is returned when the command is given no object files to load.
var errNoImage = errors.New("lc3: no image file given")

// errInterrupted is returned when a signal stops the machine before it
// halts on its own.
var errInterrupted = errors.New("lc3: interrupted")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var loglevel string

	logger := log.DefaultLogger()
	log.SetDefault(logger)

	root := &cobra.Command{
		Use:           "lc3 image.bin [image.bin ...]",
		Short:         "Run LC-3 object files in a software emulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, images []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(loglevel)); err != nil {
				return fmt.Errorf("lc3: %w", err)
			}

			log.LogLevel.Set(level)

			if len(images) == 0 {
				return errNoImage
			}

			return runMachine(images, logger)
		},
	}

	root.Flags().StringVar(&loglevel, "loglevel", "info", "minimum log level: debug, info, warn, error")

	// cobra falls back to os.Args when given nil, so pass an empty slice.
	if args == nil {
		args = []string{}
	}

	root.SetArgs(args)

	switch err := root.Execute(); {
	case err == nil:
		return 0
	case errors.Is(err, errNoImage):
		logger.Error(err.Error())
		fmt.Fprintln(os.Stdout, err)

		return 2
	case errors.Is(err, vm.ErrImageLoad):
		logger.Error(err.Error())
		fmt.Fprintln(os.Stdout, err)

		return 1
	case errors.Is(err, errInterrupted):
		// Conventional shell exit status for death by SIGINT (128+2).
		return 130
	default:
		logger.Error(err.Error())
		return 1
	}
}

// runMachine loads the given images in order, wires up the console, and runs
// the machine to completion or until interrupted.
func runMachine(images []string, logger *log.Logger) error {
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	opts := []vm.OptionFn{vm.WithLogger(logger), vm.WithOutput(out)}

	console, err := tty.NewConsole(os.Stdin)
	switch {
	case err == nil:
		defer console.Restore()

		opts = append(opts, vm.WithKeyboard(console))
	case errors.Is(err, tty.ErrNoTTY):
		logger.Warn("standard input is not a terminal; GETC/IN will fail if the program uses them")
	default:
		return fmt.Errorf("lc3: console: %w", err)
	}

	machine := vm.New(opts...)

	for _, path := range images {
		origin, count, err := machine.LoadImage(path)
		if err != nil {
			return err
		}

		logger.Info("loaded image", "path", path, "origin", origin, "words", count)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	runErr := make(chan error, 1)

	go func() { runErr <- machine.Run() }()

	select {
	case err := <-runErr:
		signal.Stop(sigCh)
		return err
	case sig := <-sigCh:
		logger.Warn("interrupted", "signal", sig.String())
		return fmt.Errorf("%w: %s", errInterrupted, sig)
	}
}
