package commands

import (
	"ihidro-assist/internal/components/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(prereqsCmd)
}

var prereqsCmd = &cobra.Command{
	Use:   "prereqs",
	Short: "Shows the values the portal expects to be sent along with a new reading.",
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession()
		defer s.cleanup()

		prereqs, err := s.account.Prerequisites(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to read submission prerequisites", err)
		}

		t := newTable()
		t.SetTitle(s.account.Name())
		t.AppendRows([]table.Row{
			{"POD", prereqs.PointOfDelivery},
			{"Serie contor", prereqs.MeterSerial},
			{"Ultimul index", prereqs.PreviousReading},
		})
		t.Render()
	},
}
