package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/transitpanel/cmd/transitpanel/app/options"
	"github.com/autopeer-io/transitpanel/internal/panel"
	"github.com/autopeer-io/transitpanel/internal/panel/core"
	"github.com/autopeer-io/transitpanel/internal/panel/render"
	"github.com/autopeer-io/transitpanel/internal/transit"
	"github.com/autopeer-io/transitpanel/pkg/log"
)

func newDeparturesCommand(opts *options.PanelOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "departures [stop-id...]",
		Short: "Fetch the configured stops once and print the board",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Init(opts.Log)

			cfg, err := opts.Config()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ids := cfg.StationIDs
			if len(args) > 0 {
				ids = make([]transit.StopID, len(args))
				for i, a := range args {
					ids[i] = transit.StopID(a)
				}
			}

			return printDepartures(cmd.Context(), cmd.OutOrStdout(), cfg.NewFetcher(core.NopWatchdog{}), ids)
		},
	}
}

// printDepartures fetches every stop into one model and prints it as a table.
// Stops that fail are reported and skipped. An error is returned only when every stop failed.
func printDepartures(ctx context.Context, w io.Writer, f panel.Fetcher, ids []transit.StopID) error {
	m := transit.NewModel()
	var errs []error
	for _, id := range ids {
		raw, err := f.FetchRaw(ctx, id)
		if err == nil {
			err = transit.ParseInto(m, raw)
		}
		if err != nil {
			errs = append(errs, err)
			fmt.Fprintf(w, "stop %s: %v\n", id, err)
		}
	}
	if len(ids) > 0 && len(errs) == len(ids) {
		return errors.Join(errs...)
	}

	table := uitable.New()
	table.MaxColWidth = render.MaxLineLen
	table.AddRow("STOP", "LINE", "TOWARDS", "DEPARTURES")
	for _, stop := range m.Stops() {
		for _, ln := range stop.Lines {
			for _, dest := range ln.Destinations {
				table.AddRow(stop.Name, ln.Name, dest.Name, render.Countdowns(dest.Departures))
			}
		}
	}
	fmt.Fprintln(w, table)
	return nil
}
