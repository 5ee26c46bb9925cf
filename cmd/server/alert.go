package main

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"signal_trade/internal/api"
)

// alertCmd prints a ready-to-paste TradingView alert body
func alertCmd() *cobra.Command {
	var (
		a         api.Alert
		amount    string
		percent   string
		stopLoss  string
		tpPrices  []string
		tpPercent []string
	)
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Generate a webhook alert body",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if a.Amount, err = optionalDecimal(amount); err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			if a.Percent, err = optionalDecimal(percent); err != nil {
				return fmt.Errorf("percent: %w", err)
			}
			if a.SLPrice, err = optionalDecimal(stopLoss); err != nil {
				return fmt.Errorf("sl: %w", err)
			}
			if len(tpPrices) != len(tpPercent) || len(tpPrices) > 4 {
				return fmt.Errorf("give up to four --tp with a matching --tp-pct each")
			}

			legs := []struct{ price, qty **decimal.Decimal }{
				{&a.TP1Price, &a.TP1QtyPercent},
				{&a.TP2Price, &a.TP2QtyPercent},
				{&a.TP3Price, &a.TP3QtyPercent},
				{&a.TP4Price, &a.TP4QtyPercent},
			}
			for i := range tpPrices {
				if *legs[i].price, err = optionalDecimal(tpPrices[i]); err != nil {
					return fmt.Errorf("tp%d: %w", i+1, err)
				}
				if *legs[i].qty, err = optionalDecimal(tpPercent[i]); err != nil {
					return fmt.Errorf("tp%d percent: %w", i+1, err)
				}
			}

			// catch mistakes before the alert reaches TradingView
			if _, err := a.Intent(); err != nil {
				return err
			}

			out, err := json.MarshalIndent(a, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&a.Password, "password", "", "webhook password")
	f.StringVar(&a.Exchange, "exchange", "BINANCE", "venue name")
	f.StringVar(&a.Base, "base", "BTC", "base asset")
	f.StringVar(&a.Quote, "quote", "USDT", "quote asset")
	f.StringVar(&a.Side, "side", "entry/buy", "entry/buy, entry/sell, close/buy, close/sell, buy or sell")
	f.StringVar(&a.Type, "type", "market", "market or limit")
	f.StringVar(&a.Market, "market", "", "spot, futures or inverse; inferred when empty")
	f.StringVar(&amount, "amount", "", "order amount in base units")
	f.StringVar(&percent, "percent", "", "order size as percent of balance or position")
	f.IntVar(&a.Leverage, "leverage", 0, "leverage to set before entry")
	f.StringVar(&a.MarginMode, "margin-mode", "", "cross or isolated")
	f.StringVar(&stopLoss, "sl", "", "stop-loss trigger price")
	f.StringSliceVar(&tpPrices, "tp", nil, "take-profit prices, up to four")
	f.StringSliceVar(&tpPercent, "tp-pct", nil, "take-profit quantity percents matching --tp")
	f.BoolVar(&a.IsTotal, "total", false, "size percent orders from total balance")
	f.BoolVar(&a.ChangeSL, "change-sl", false, "move the stop of the open position to breakeven")
	return cmd
}

func optionalDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
