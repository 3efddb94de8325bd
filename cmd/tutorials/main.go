// Package main provides the tutorials CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AnshMittal1811/Pytorch/internal/device"
	"github.com/AnshMittal1811/Pytorch/internal/serialization"
	"github.com/AnshMittal1811/Pytorch/internal/tutorial"
)

const version = "v0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("❌ %v", err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return nil
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(out, "tutorials %s (snapshot format v%d)\n", version, serialization.FormatVersion)
		fmt.Fprintf(out, "CPU: %s\n", device.Describe())
		return nil
	case "list":
		for _, t := range tutorial.Registry() {
			fmt.Fprintf(out, "  %-20s %s\n", t.Name, t.Description)
		}
		return nil
	case "help", "-h", "--help":
		usage(out)
		return nil
	case "evaluate":
		return evaluate(ctx, args[1:], out)
	}

	t, err := tutorial.Lookup(args[0])
	if err != nil {
		return fmt.Errorf("%w (run 'tutorials list')", err)
	}

	cfg := t.Config()
	fs := flag.NewFlagSet(t.Name, flag.ContinueOnError)
	fs.SetOutput(out)
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	fmt.Fprintf(out, "🚀 %s: %s\n", t.Name, t.Description)
	if err := t.Run(ctx, cfg, out); err != nil {
		return fmt.Errorf("%s: %w", t.Name, err)
	}
	fmt.Fprintln(out, "✅ Done")
	return nil
}

// modelArg finds the -model value before flags are parsed, so the
// architecture defaults of that tutorial can be registered first.
func modelArg(args []string) string {
	for i, a := range args {
		a = "-" + strings.TrimLeft(a, "-")
		if v, ok := strings.CutPrefix(a, "-model="); ok {
			return v
		}
		if a == "-model" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func evaluate(ctx context.Context, args []string, out io.Writer) error {
	t, err := tutorial.Lookup(modelArg(args))
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	fs.SetOutput(out)
	kind := fs.String("model", "", "Model kind (logistic-regression, feedforward, cnn, rnn, lstm)")
	weights := fs.String("weights", "", "Path to a .born snapshot")
	cfg := t.Config()
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *weights == "" {
		return errors.New("evaluate: -weights is required")
	}
	return tutorial.Evaluate(ctx, cfg, *kind, *weights, out)
}

func usage(out io.Writer) {
	fmt.Fprintf(out, "tutorials %s\n\n", version)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  tutorials <name> [flags]     Run a tutorial")
	fmt.Fprintln(out, "  tutorials list               List tutorials")
	fmt.Fprintln(out, "  tutorials evaluate -model <name> -weights <file> [flags]")
	fmt.Fprintln(out, "  tutorials version            Show version and CPU")
	fmt.Fprintln(out, "\nTutorials:")
	fmt.Fprintf(out, "  %s\n", strings.Join(tutorial.Names(), ", "))
}
