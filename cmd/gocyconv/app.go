package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/robotomize/gocyconv"
	"github.com/robotomize/gocyconv/internal/config"
	"github.com/robotomize/gocyconv/internal/logging"
	"github.com/robotomize/gocyconv/label"
	"github.com/sethvargo/go-retry"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func newApp(svc *gocyconv.Service, cfg config.Config, in io.Reader, out io.Writer) *app {
	return &app{
		svc:     svc,
		cfg:     cfg,
		in:      bufio.NewScanner(in),
		out:     out,
		printer: message.NewPrinter(language.English),
	}
}

type app struct {
	svc     *gocyconv.Service
	cfg     config.Config
	in      *bufio.Scanner
	out     io.Writer
	printer *message.Printer
}

// retry repeats f while it fails with ErrConnectivity, at most cfg.RetryNum more times
func (a *app) retry(ctx context.Context, f func(ctx context.Context) error) error {
	logger := logging.FromContext(ctx)

	b, err := retry.NewConstant(a.cfg.RetryDuration)
	if err != nil {
		return fmt.Errorf("retry.NewConstant: %w", err)
	}

	b = retry.WithMaxRetries(a.cfg.RetryNum, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := f(ctx); err != nil {
			if errors.Is(err, gocyconv.ErrConnectivity) {
				logger.Printf("retrying: %v", err)
				return retry.RetryableError(err)
			}

			return err
		}

		return nil
	})
}

func (a *app) listCurrencies(ctx context.Context) error {
	var currencies []label.Currency
	if err := a.retry(ctx, func(ctx context.Context) error {
		var err error
		currencies, err = a.svc.ListCurrencies(ctx)
		return err
	}); err != nil {
		return err
	}

	for _, c := range currencies {
		a.printer.Fprintf(a.out, "%s - %s\n", c.Symbol, c.Name)
	}

	return nil
}

func (a *app) rates(ctx context.Context) (gocyconv.Snapshot, error) {
	var snap gocyconv.Snapshot
	err := a.retry(ctx, func(ctx context.Context) error {
		var err error
		snap, err = a.svc.Rates(ctx)
		return err
	})

	return snap, err
}

func (a *app) convertFromBase(ctx context.Context, amount float64, target label.Symbol) error {
	var conv gocyconv.Conversion
	if err := a.retry(ctx, func(ctx context.Context) error {
		var err error
		conv, err = a.svc.ConvertFromBase(ctx, amount, target)
		return err
	}); err != nil {
		return err
	}

	a.printer.Fprintf(a.out, "Total in %s: %.2f\n", conv.To, conv.Amount)

	return nil
}

func (a *app) convertAny(ctx context.Context, from, to label.Symbol, amount float64) error {
	var conv gocyconv.Conversion
	if err := a.retry(ctx, func(ctx context.Context) error {
		var err error
		conv, err = a.svc.ConvertAny(ctx, from, to, amount)
		return err
	}); err != nil {
		return err
	}

	a.printer.Fprintf(a.out, "%.2f %s = %.2f %s\n", conv.Value, conv.From, conv.Amount, conv.To)

	return nil
}

func (a *app) refresh(ctx context.Context) error {
	var snap gocyconv.Snapshot
	if err := a.retry(ctx, func(ctx context.Context) error {
		var err error
		snap, err = a.svc.Refresh(ctx)
		return err
	}); err != nil {
		return err
	}

	a.printer.Fprintf(a.out, "Refresh complete: %d rates against %s\n", len(snap.Rates), snap.Base)

	return nil
}

func (a *app) export(ctx context.Context) error {
	if err := a.retry(ctx, func(ctx context.Context) error {
		_, err := a.svc.Export(ctx)
		return err
	}); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Rates are saved as %s\n", a.cfg.SnapshotPath)

	return nil
}

func (a *app) historicalRate(ctx context.Context, sym label.Symbol, date string) error {
	var point gocyconv.HistoricalRate
	if err := a.retry(ctx, func(ctx context.Context) error {
		var err error
		point, err = a.svc.HistoricalRate(ctx, sym, date)
		return err
	}); err != nil {
		return err
	}

	a.printer.Fprintf(a.out, "The rate for 1 %s in %s on %s was: %.6f\n",
		point.Base, point.Symbol, point.Date.Format(gocyconv.DateLayout), point.Rate)

	return nil
}

func (a *app) trend(ctx context.Context, sym label.Symbol, start string, days int) error {
	var points []gocyconv.HistoricalRate
	if err := a.retry(ctx, func(ctx context.Context) error {
		var err error
		points, err = a.svc.Trend(ctx, sym, start, days)
		return err
	}); err != nil {
		return err
	}

	if len(points) > 0 {
		fmt.Fprintf(a.out, "The rate for 1 %s in %s:\n", points[0].Base, sym)
	}

	for _, p := range points {
		a.printer.Fprintf(a.out, "%s - %s: %.6f\n", p.Date.Format(gocyconv.DateLayout), p.Symbol, p.Rate)
	}

	return nil
}

// report prints a short message for the user, details go to the log
func (a *app) report(ctx context.Context, err error) {
	logging.FromContext(ctx).Printf("error: %v", err)

	switch {
	case errors.Is(err, gocyconv.ErrConnectivity):
		fmt.Fprintln(a.out, "We have run into a problem with the connection, please try again.")
	case errors.Is(err, gocyconv.ErrProtocol):
		fmt.Fprintln(a.out, "The rates provider returned an unexpected response, please try again later.")
	case errors.Is(err, gocyconv.ErrPersistence):
		fmt.Fprintf(a.out, "Could not save the rates to %s.\n", a.cfg.SnapshotPath)
	default:
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
}
