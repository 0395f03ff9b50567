package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/apotek/app/services"
	"github.com/shashiranjanraj/apotek/config"
	"github.com/shashiranjanraj/apotek/internal/kernel"
	"github.com/shashiranjanraj/apotek/internal/server"
)

func queueWorkCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "queue:work",
		Short: "Process queued jobs until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if workers < 1 {
				workers = config.QueueWorkers()
			}
			return boot(cmd, func(ctx context.Context, k *kernel.Kernel) error {
				return server.Run(ctx, k, server.Options{Workers: workers})
			})
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of concurrent workers (default QUEUE_WORKERS)")
	return cmd
}

func scheduleRunCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "schedule:run",
		Short: "Run the task scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return boot(cmd, func(ctx context.Context, k *kernel.Kernel) error {
				for _, t := range k.Scheduler.List() {
					fmt.Fprintln(cmd.OutOrStdout(), "  •", t)
				}
				if once {
					return k.Scheduler.RunNow(ctx)
				}
				return server.Run(ctx, k, server.Options{Scheduler: true})
			})
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run every task once and exit")
	return cmd
}

func receiptCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "receipt <transaction-id>",
		Short: "Print the receipt of a committed transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}
			return boot(cmd, func(ctx context.Context, k *kernel.Kernel) error {
				view, err := k.Register.GetReceipt(ctx, services.Operator, uint(id))
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(view)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), view.Text())
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the structured view instead of the slip")
	return cmd
}
