package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/windel/canex"
	"golang.org/x/sync/errgroup"
)

var loadInterval time.Duration

func init() {
	loadCmd.Flags().DurationVar(&loadInterval, "interval", canex.DefaultLoadInterval, "sampling interval")
	rootCmd.AddCommand(loadCmd)
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Print bus throughput at a fixed interval",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		link, err := openLink()
		if err != nil {
			return err
		}
		if err := link.Connect(); err != nil {
			return err
		}
		defer link.Disconnect()

		bl := canex.NewBusLoad(loadInterval)
		link.AttachRecvCallback(bl.OnMessage)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return bl.Run(gctx)
		})
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case s := <-bl.C():
					fmt.Printf("%s %8.0f bit/s\n", s.Time.Format("15:04:05.000"), s.BitsPerSecond)
				}
			}
		})
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
