package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/robotomize/gocyconv"
	"github.com/robotomize/gocyconv/label"
)

// run executes one command given on the command line
func (a *app) run(ctx context.Context, args []string) error {
	name, rest := args[0], args[1:]

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)

	switch name {
	case "list":
		return a.listCurrencies(ctx)
	case "refresh":
		return a.refresh(ctx)
	case "export":
		return a.export(ctx)
	case "convert":
		to := fs.String("to", "", "target currency, e.g. EUR")
		amount := fs.Float64("amount", 1, "amount of the base currency")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		target, err := parseSymbolFlag("to", *to)
		if err != nil {
			return err
		}

		return a.convertFromBase(ctx, *amount, target)
	case "convert-any":
		from := fs.String("from", "", "source currency, e.g. EUR")
		to := fs.String("to", "", "target currency, e.g. SEK")
		amount := fs.Float64("amount", 1, "amount of the source currency")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		fromSym, err := parseSymbolFlag("from", *from)
		if err != nil {
			return err
		}

		toSym, err := parseSymbolFlag("to", *to)
		if err != nil {
			return err
		}

		return a.convertAny(ctx, fromSym, toSym, *amount)
	case "historical":
		symbol := fs.String("symbol", "", "currency, e.g. SEK")
		date := fs.String("date", "", "date in YYYY-MM-DD form")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		sym, err := parseSymbolFlag("symbol", *symbol)
		if err != nil {
			return err
		}

		return a.historicalRate(ctx, sym, *date)
	case "trend":
		symbol := fs.String("symbol", "", "currency, e.g. SEK")
		start := fs.String("start", "", "first date in YYYY-MM-DD form")
		days := fs.Int("days", 7, fmt.Sprintf("number of days after the start, 1-%d", gocyconv.MaxTrendDays))
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		sym, err := parseSymbolFlag("symbol", *symbol)
		if err != nil {
			return err
		}

		return a.trend(ctx, sym, *start, *days)
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

func parseSymbolFlag(name, value string) (label.Symbol, error) {
	sym, err := label.ParseSymbol(value)
	if err != nil {
		return "", fmt.Errorf("%w: -%s: %w", gocyconv.ErrValidation, name, err)
	}

	return sym, nil
}
