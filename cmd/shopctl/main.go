// shopctl drives the storefront from a terminal: sign in, browse stores,
// and manage the cart and wishlist. State persists in the configured
// storage, so successive commands share one session.
//
// Examples:
//
//	shopctl login --email ann@example.com
//	shopctl store by-category electronics
//	shopctl store products 12
//	shopctl cart add 60 --store 12 --name "Desk Lamp" --price 19.50 --qty 2
//	shopctl cart show
//	shopctl wishlist toggle 60
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"storefront/internal/app"
	"storefront/internal/config"
)

// errReported means the failure was already printed.
var errReported = errors.New("reported")

func main() {
	c := &cli{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}
	root := newRootCmd(c, func(ctx context.Context, verbose bool) (*app.App, error) {
		cfg, err := config.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return app.New(ctx, cfg, initLogger(os.Stderr, verbose))
	})

	err := root.Execute()
	if c.app != nil {
		c.app.Close()
	}
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
}

// builder creates the App once flags are parsed.
type builder func(ctx context.Context, verbose bool) (*app.App, error)

func newRootCmd(c *cli, build builder) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Storefront client: session, stores, cart and wishlist",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.out = cmd.OutOrStdout()
			c.p = newPrinter(c.out, !c.noColor && os.Getenv("NO_COLOR") == "")
			if c.app != nil {
				return nil
			}
			a, err := build(cmd.Context(), verbose)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			c.flush()
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log backend traffic to stderr")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "Print results as JSON")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.guestCmd(),
		c.whoamiCmd(),
		c.cartCmd(),
		c.wishlistCmd(),
		c.storeCmd(),
	)
	return root
}

// initLogger keeps the CLI quiet unless asked; output goes to w.
func initLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
