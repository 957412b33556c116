package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robotomize/gocyconv"
	"github.com/robotomize/gocyconv/internal/config"
	"github.com/robotomize/gocyconv/internal/logging"
	"github.com/robotomize/gocyconv/provider/httputil"
	"github.com/robotomize/gocyconv/provider/oxr"
)

const usage = `Usage: gocyconv [flags] [command [command flags]]

Without a command an interactive menu is started.

Commands:
  list                                      list all currencies
  convert -to EUR -amount 100               convert from the base currency
  convert-any -from EUR -to SEK -amount 10  convert between any two currencies
  refresh                                   fetch the latest rates
  export                                    save the latest rates to the snapshot file
  historical -symbol SEK -date 2024-01-01   rate of a currency at a date
  trend -symbol SEK -start 2024-01-01 -days 3
                                            rates of a currency for consecutive days

Flags:
`

var (
	flagSet = flag.NewFlagSet("gocyconv", flag.ContinueOnError)
	envFile = flagSet.String("env", config.DefaultEnvFile, "path to the file with environment variables")
	verbose = flagSet.Bool("v", false, "log failure details")
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer done()

	logger := logging.NewLogger(os.Stderr, "Gocyconv: ", log.Lmsgprefix)
	flagSet.Usage = func() {
		fmt.Fprint(flagSet.Output(), usage)
		flagSet.PrintDefaults()
		fmt.Fprintln(flagSet.Output())
		fmt.Fprintln(flagSet.Output(), config.Description())
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Fatalf("flag parse: %v", err)
	}

	if !*verbose {
		logger = logging.Discard()
	}

	ctx = logging.WithLogger(ctx, logger)

	if err := realMain(ctx, *envFile, flagSet.Args(), os.Stdin, os.Stdout); err != nil {
		done()
		fmt.Fprintf(os.Stderr, "gocyconv: %v\n", err)
		os.Exit(1)
	}
}

func realMain(ctx context.Context, envFile string, args []string, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	a := newApp(svc, cfg, in, out)
	if len(args) == 0 {
		return a.menu(ctx)
	}

	return a.run(ctx, args)
}

func newService(cfg config.Config) (*gocyconv.Service, error) {
	baseURL, err := cfg.URL()
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}

	source := oxr.NewSource(
		httputil.DefaultClient(cfg.RequestTimeout),
		cfg.AppID,
		oxr.WithBaseURL(baseURL),
		oxr.WithBase(cfg.Base()),
	)

	store := gocyconv.NewStore(
		source,
		gocyconv.WithBase(cfg.Base()),
		gocyconv.WithSnapshotPath(cfg.SnapshotPath),
		gocyconv.WithMaxAge(cfg.MaxAge),
	)

	return gocyconv.NewService(store), nil
}
