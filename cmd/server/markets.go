package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"signal_trade/internal/models"
)

type marketLister interface {
	Markets(kind models.MarketKind) []*models.Market
}

// marketsCmd prints the instrument metadata the engine sizes orders with
func marketsCmd() *cobra.Command {
	var (
		kind  string
		base  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "markets <venue>",
		Short: "List loaded markets of a venue with their steps and contract sizes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			for _, v := range buildVenues(cfg) {
				if !strings.EqualFold(v.Name(), args[0]) {
					continue
				}
				if err := v.LoadMarkets(cmd.Context()); err != nil {
					return err
				}
				lister, ok := v.(marketLister)
				if !ok {
					return fmt.Errorf("%s cannot list markets", v.Name())
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSYMBOL\tCONTRACT\tCONTRACT SIZE\tAMOUNT STEP\tPRICE STEP\tMIN")
				n := 0
				for _, m := range lister.Markets(models.MarketKind(kind)) {
					if base != "" && !strings.EqualFold(m.Base, base) {
						continue
					}
					if limit > 0 && n >= limit {
						break
					}
					fmt.Fprintf(w, "%s\t%s/%s\t%t\t%s\t%s\t%s\t%s\n",
						m.ID, m.Base, m.Quote, m.Contract, m.ContractSize, m.AmountStep, m.PriceStep, m.MinAmount)
					n++
				}
				return w.Flush()
			}
			return fmt.Errorf("venue %s is not enabled", args[0])
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(models.MarketSpot), "market kind: spot, futures-linear or futures-inverse")
	cmd.Flags().StringVar(&base, "base", "", "only markets of this base asset")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum rows, 0 for all")
	return cmd
}
