package cmd

import (
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/windel/canex"
)

func init() {
	rootCmd.AddCommand(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send [id] [data]",
	Short: "Send a single frame, id and data as hex",
	Long:  `Send a single frame. When id or data are omitted they are prompted for.`,
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var idStr, dataStr string
		var err error
		if len(args) > 0 {
			idStr = args[0]
		} else {
			idStr, err = askHex("ID (hex)", "11", 8, false)
			if err != nil {
				return err
			}
		}
		if len(args) > 1 {
			dataStr = args[1]
		} else if len(args) < 2 {
			dataStr, err = askHex("Data (hex)", "0102030405060708", 16, true)
			if err != nil {
				return err
			}
		}

		id, err := strconv.ParseUint(idStr, 16, 32)
		if err != nil {
			return fmt.Errorf("invalid identifier %q: %v", idStr, err)
		}
		data, err := hex.DecodeString(dataStr)
		if err != nil {
			return fmt.Errorf("invalid data %q: %v", dataStr, err)
		}
		msg, err := canex.NewMessage(uint32(id), data)
		if err != nil {
			return err
		}

		link, err := openLink()
		if err != nil {
			return err
		}
		if err := retry.Do(
			link.Connect,
			retry.Attempts(3),
			retry.Delay(200*time.Millisecond),
		); err != nil {
			return err
		}
		defer link.Disconnect()

		if err := link.Send(msg); err != nil {
			return err
		}
		log.Printf("sent %s", msg)
		return nil
	},
}

func askHex(label, def string, maxDigits int, evenDigits bool) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: def,
		Validate: func(in string) error {
			if len(in) == 0 || len(in) > maxDigits {
				return fmt.Errorf("want 1 to %d hex digits", maxDigits)
			}
			if evenDigits && len(in)%2 != 0 {
				return fmt.Errorf("want full hex bytes, got %d digits", len(in))
			}
			for _, r := range in {
				if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
					return fmt.Errorf("%q is not a hex digit", r)
				}
			}
			return nil
		},
	}
	return prompt.Run()
}
