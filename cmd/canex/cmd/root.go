package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/k0kubun/go-ansi"
	"github.com/mitchellh/colorstring"
	"github.com/spf13/cobra"
	"github.com/windel/canex"
)

var rootCmd = &cobra.Command{
	Use:          "canex",
	Short:        "CAN bus explorer",
	Long:         `Observe and inject traffic on a CAN bus over socketcan, slcan or a local loopback`,
	SilenceUsage: true,
}

const banner = "[green]can[blue]ex[reset] :: CAN bus explorer"

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	colorstring.Fprintln(ansi.NewAnsiStdout(), banner)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var (
	device   string
	adapter  string
	comPort  string
	baudRate int
	debug    bool
)

func init() {
	log.SetFlags(log.Lshortfile | log.LstdFlags)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&device, "interface", "i", "can0", "CAN interface name for socketcan")
	pf.StringVarP(&adapter, "adapter", "a", "socketcan", "transport: socketcan, slcan or loopback")
	pf.StringVarP(&comPort, "port", "p", "", "com-port for slcan")
	pf.IntVarP(&baudRate, "baudrate", "b", 115200, "baudrate for slcan")
	pf.BoolVarP(&debug, "debug", "d", false, "debug mode")
}

func openLink() (canex.Link, error) {
	cfg := &canex.Config{
		Interface:    device,
		Port:         comPort,
		PortBaudrate: baudRate,
		Debug:        debug,
	}
	switch adapter {
	case "socketcan":
		return canex.NewSocketCAN(cfg), nil
	case "slcan":
		return canex.NewSLCan(cfg), nil
	case "loopback":
		return canex.NewLoopback(cfg), nil
	}
	return nil, fmt.Errorf("unknown adapter %q", adapter)
}
