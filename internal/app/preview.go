package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// Preview generates a burst of offline batches and prints them as a table,
// without starting the server or the refresh loop.
func (a *App) Preview(ctx context.Context, opts PreviewOptions) error {
	signal := a.newSignal()
	sales := a.newSales()
	interval := a.Config.Refresh.Interval

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Tick\tTime (UTC)\tValue\tAnomaly\tOrders\tRevenue")

	now := time.Now().UTC()
	for i := 0; i < opts.Batches; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		tick := now.Add(time.Duration(i) * interval)
		sample := signal.Next(tick)

		orders := 0
		revenue := decimal.Zero
		if sales != nil {
			events := sales.Next(tick)
			orders = len(events)
			for _, e := range events {
				revenue = revenue.Add(e.Price)
			}
		}

		fmt.Fprintf(
			writer,
			"%d\t%s\t%.2f\t%v\t%d\t%s\n",
			i+1,
			tick.Format(time.RFC3339),
			sample.Value,
			sample.Anomaly,
			orders,
			revenue.StringFixed(2),
		)
	}

	return writer.Flush()
}
