package cmd

import (
	"fmt"
	"log"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/windel/canex"
)

var classify bool

func init() {
	dumpCmd.Flags().BoolVar(&classify, "classify", false, "decode error frame conditions")
	rootCmd.AddCommand(dumpCmd)
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print received frames until interrupted",
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

		go func() {
			for {
				m := link.Recv()
				fmt.Println(m.ColorString())
				if classify {
					conds, err := canex.ClassifyErrorFrame(m)
					if err != nil {
						continue
					}
					for _, c := range conds {
						color.Red("  !! %s", c)
					}
				}
			}
		}()

		<-ctx.Done()
		if err := link.Disconnect(); err != nil {
			return err
		}
		if s, ok := link.(interface{ Stats() canex.Stats }); ok {
			log.Println(s.Stats())
		}
		return nil
	},
}
