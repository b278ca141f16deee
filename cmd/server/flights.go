package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MateoHeras77/ShiftTradeAV/pkg/shiftclock"
)

func newFlightsCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "flights",
		Short: "打印班次表；指定 --date 时给出当日 UTC 区间",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			resolver, err := shiftclock.LoadResolver(cfg.Workflow.Timezone)
			if err != nil {
				return err
			}
			var d shiftclock.Date
			if date != "" {
				if d, err = shiftclock.ParseDate(date); err != nil {
					return err
				}
			}
			return printFlights(cmd.OutOrStdout(), resolver, d)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "班次日期 YYYY-MM-DD")
	return cmd
}

func printFlights(out io.Writer, resolver *shiftclock.Resolver, d shiftclock.Date) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if d.IsZero() {
		fmt.Fprintln(w, "CODE\tSTART\tEND\tOVERNIGHT")
	} else {
		fmt.Fprintln(w, "CODE\tSTART\tEND\tOVERNIGHT\tSTART_UTC\tEND_UTC")
	}

	for _, e := range shiftclock.Entries() {
		if d.IsZero() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", e.Code, e.StartText(), e.EndText(), e.Overnight)
			continue
		}
		iv := resolver.Resolve(d, e.Code)
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n", e.Code, e.StartText(), e.EndText(), e.Overnight,
			iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
	}
	return w.Flush()
}
