package cmd

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/spf13/cobra"
	"github.com/windel/canex"
	"github.com/windel/canex/pkg/bar"
)

var (
	sineID       uint32
	sineFreq     float64
	sineInterval time.Duration
	sineCount    int
)

func init() {
	sineCmd.Flags().Uint32Var(&sineID, "id", 0x11, "frame identifier")
	sineCmd.Flags().Float64Var(&sineFreq, "freq", 0.2, "sinewave frequency in Hz")
	sineCmd.Flags().DurationVar(&sineInterval, "interval", 50*time.Millisecond, "time between frames")
	sineCmd.Flags().IntVar(&sineCount, "count", 0, "stop after this many frames, 0 for unlimited")
	rootCmd.AddCommand(sineCmd)
}

var sineCmd = &cobra.Command{
	Use:   "sine",
	Short: "Send a sinewave signal, useful as plottable test traffic",
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

		var pb interface{ Add(int) error }
		if sineCount > 0 {
			pb = bar.New(sineCount, "sending")
		}

		start := time.Now()
		t := time.NewTicker(sineInterval)
		defer t.Stop()
		for sent := 0; sineCount == 0 || sent < sineCount; sent++ {
			select {
			case <-ctx.Done():
				return nil
			case now := <-t.C:
				value := 180 * math.Sin(now.Sub(start).Seconds()*sineFreq*2*math.Pi)
				var data [8]byte
				binary.LittleEndian.PutUint64(data[:], math.Float64bits(value))
				msg, err := canex.NewMessage(sineID, data[:])
				if err != nil {
					return err
				}
				if err := link.Send(msg); err != nil {
					return err
				}
				if pb != nil {
					pb.Add(1)
				}
			}
		}
		return nil
	},
}
