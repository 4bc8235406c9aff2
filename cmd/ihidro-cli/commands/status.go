package commands

import (
	"encoding/json"
	"fmt"
	"ihidro-assist/internal/components/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statusJson *bool

func init() {
	statusJson = statusCmd.Flags().Bool("json", false, "Print the status as json.")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [--json]",
	Short: "Shows the transmission window and the invoice summary.",
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession()
		defer s.cleanup()

		status, err := s.account.Refresh(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to fetch status", err)
		}

		if *statusJson {
			out, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				serviceutil.Fatal("failed to serialize status", err)
			}
			fmt.Println(string(out))
			return
		}

		t := newTable()
		t.SetTitle(s.account.Name())
		t.AppendRows([]table.Row{
			{"Perioada de transmitere", status.TransmissionWindow},
			{"Se poate transmite", yesNo(status.IsWindowOpen)},
			{"Factura", status.InvoiceText},
		})
		t.Render()
	},
}
