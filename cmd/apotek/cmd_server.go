package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/apotek/internal/kernel"
	"github.com/shashiranjanraj/apotek/internal/server"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// boot starts a kernel and runs fn with it until the signal context ends.
func boot(cmd *cobra.Command, fn func(ctx context.Context, k *kernel.Kernel) error) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	k, err := kernel.Boot(ctx)
	if err != nil {
		return err
	}
	defer k.Close()
	return fn(ctx, k)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"run", "start"},
		Short:   "Start the HTTP and gRPC servers with queue workers and the scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return boot(cmd, func(ctx context.Context, k *kernel.Kernel) error {
				return server.Run(ctx, k, server.All())
			})
		},
	}
}

func routeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route:list",
		Short: "List every named route",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := kernel.NewRouter(nil, nil, nil)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "METHOD\tPATH\tNAME")
			fmt.Fprintln(w, "------\t----\t----")
			for _, ri := range r.Routes() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
			}
			return w.Flush()
		},
	}
}
