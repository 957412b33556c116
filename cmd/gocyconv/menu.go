package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/robotomize/gocyconv"
	"github.com/robotomize/gocyconv/label"
)

// errBack returns the user to the menu
var errBack = errors.New("back to menu")

const menuText = `
Currency Converter Menu:
[0] - List all currencies
[1] - Convert %[1]s to a currency of choice
[2] - Refresh the data (fetch new currency data)
[3] - Export the data to JSON
[4] - Convert from any currency to any currency
[5] - Get historical exchange rate
[6] - Get rate trend for a currency
[7] - Exit the application

`

func (a *app) menu(ctx context.Context) error {
	actions := map[string]func(context.Context) error{
		"0": a.listCurrencies,
		"1": a.menuConvertFromBase,
		"2": a.refresh,
		"3": a.export,
		"4": a.menuConvertAny,
		"5": a.menuHistoricalRate,
		"6": a.menuTrend,
	}

	for {
		fmt.Fprintf(a.out, menuText, a.cfg.Base())

		choice, err := a.readLine("Enter your choice (0-7): ")
		if err != nil {
			return ignoreEOF(err)
		}

		fmt.Fprintln(a.out)

		if choice == "7" {
			fmt.Fprintln(a.out, "Thank you for using the Currency Converter. Goodbye!")
			return nil
		}

		action, ok := actions[choice]
		if !ok {
			fmt.Fprintln(a.out, "Invalid choice. Please try again.")
			continue
		}

		if err := action(ctx); err != nil {
			switch {
			case errors.Is(err, errBack):
			case errors.Is(err, io.EOF):
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				a.report(ctx, err)
			}
		}
	}
}

func (a *app) menuConvertFromBase(ctx context.Context) error {
	snap, err := a.rates(ctx)
	if err != nil {
		return err
	}

	target, err := a.askSymbol(snap, "Please select a currency by its 3-letter code or press Q to go back: ")
	if err != nil {
		return err
	}

	amount, err := a.askAmount(fmt.Sprintf("Enter the amount in %s to convert to %s: ", snap.Base, target))
	if err != nil {
		return err
	}

	return a.convertFromBase(ctx, amount, target)
}

func (a *app) menuConvertAny(ctx context.Context) error {
	snap, err := a.rates(ctx)
	if err != nil {
		return err
	}

	from, err := a.askSymbol(snap, "Please select the currency to convert from by its 3-letter code or press Q to go back: ")
	if err != nil {
		return err
	}

	to, err := a.askSymbol(snap, "Please select the currency to convert to by its 3-letter code or press Q to go back: ")
	if err != nil {
		return err
	}

	amount, err := a.askAmount(fmt.Sprintf("Enter the amount in %s: ", from))
	if err != nil {
		return err
	}

	return a.convertAny(ctx, from, to, amount)
}

func (a *app) menuHistoricalRate(ctx context.Context) error {
	snap, err := a.rates(ctx)
	if err != nil {
		return err
	}

	sym, err := a.askSymbol(snap, "Please select the currency by its 3-letter code or press Q to go back: ")
	if err != nil {
		return err
	}

	date, err := a.askDate("Now please enter a date (YYYY-MM-DD): ")
	if err != nil {
		return err
	}

	return a.historicalRate(ctx, sym, date)
}

func (a *app) menuTrend(ctx context.Context) error {
	snap, err := a.rates(ctx)
	if err != nil {
		return err
	}

	sym, err := a.askSymbol(snap, "Please select the currency by its 3-letter code or press Q to go back: ")
	if err != nil {
		return err
	}

	start, err := a.askDate("Now please enter a start date (YYYY-MM-DD): ")
	if err != nil {
		return err
	}

	days, err := a.askDays(fmt.Sprintf("How many days do you want to log (1-%d)? ", gocyconv.MaxTrendDays))
	if err != nil {
		return err
	}

	return a.trend(ctx, sym, start, days)
}

func (a *app) readLine(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)

	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}

		return "", io.EOF
	}

	return strings.TrimSpace(a.in.Text()), nil
}

// ask repeats prompt until parse accepts the answer. Q returns errBack
func (a *app) ask(prompt, retryPrompt string, parse func(string) bool) (string, error) {
	line, err := a.readLine(prompt)
	for {
		if err != nil {
			return "", err
		}

		if strings.EqualFold(line, "q") {
			return "", errBack
		}

		if parse(line) {
			return line, nil
		}

		line, err = a.readLine(retryPrompt)
	}
}

func (a *app) askSymbol(snap gocyconv.Snapshot, prompt string) (label.Symbol, error) {
	var sym label.Symbol
	_, err := a.ask(prompt, "The currency code you selected is not available, please try again: ", func(s string) bool {
		parsed, err := label.ParseSymbol(s)
		if err != nil {
			return false
		}

		if _, ok := snap.Rate(parsed); !ok {
			return false
		}

		sym = parsed

		return true
	})

	return sym, err
}

func (a *app) askAmount(prompt string) (float64, error) {
	var amount float64
	_, err := a.ask(prompt, "You need to enter a non-negative amount in digits, please try again: ", func(s string) bool {
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil || v < 0 {
			return false
		}

		amount = v

		return true
	})

	return amount, err
}

func (a *app) askDate(prompt string) (string, error) {
	return a.ask(prompt, "The date is not valid, please try again (YYYY-MM-DD): ", func(s string) bool {
		_, err := gocyconv.ParseDate(s)
		return err == nil
	})
}

func (a *app) askDays(prompt string) (int, error) {
	var days int
	retryPrompt := fmt.Sprintf("The number of days must be between 1 and %d, please try again: ", gocyconv.MaxTrendDays)
	_, err := a.ask(prompt, retryPrompt, func(s string) bool {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > gocyconv.MaxTrendDays {
			return false
		}

		days = v

		return true
	})

	return days, err
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}
