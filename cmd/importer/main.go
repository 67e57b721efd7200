package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	investgo "github.com/russianinvestments/invest-api-go-sdk/investgo"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Eduvent/bono-app-sub002/internal/config"
	"github.com/Eduvent/bono-app-sub002/internal/domain/cashflow"
	domain "github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
	infrabonds "github.com/Eduvent/bono-app-sub002/internal/infrastructure/bonds"
	"github.com/Eduvent/bono-app-sub002/internal/infrastructure/broker"
	"github.com/Eduvent/bono-app-sub002/internal/infrastructure/investapi"
)

const (
	defaultInvestEndpoint = "invest-public-api.tinkoff.ru:443"
	defaultAppName        = "bond-terms-importer"
	defaultFetchWorkers   = 4
)

type termsSource interface {
	FetchTerms(ctx context.Context, figi string) (*domain.Terms, error)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	app := &cli.App{
		Name:  "importer",
		Usage: "load bond terms from the Invest API into Postgres",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dsn", EnvVars: []string{"DATABASE_DSN"}, Required: true, Usage: "Postgres connection string"},
			&cli.StringFlag{Name: "token", EnvVars: []string{"INVEST_TOKEN"}, Required: true, Usage: "Invest API token"},
			&cli.StringFlag{Name: "endpoint", EnvVars: []string{"INVEST_ENDPOINT"}, Value: defaultInvestEndpoint},
			&cli.StringFlag{Name: "app-name", EnvVars: []string{"INVEST_APP_NAME"}, Value: defaultAppName},
			&cli.BoolFlag{Name: "insecure-skip-verify", EnvVars: []string{"INVEST_INSECURE_SKIP_VERIFY"}, Value: true},
			&cli.StringSliceFlag{Name: "figi", Usage: "bond FIGI, repeatable"},
			&cli.StringFlag{Name: "figi-file", EnvVars: []string{"BONDS_FILE"}, Usage: `JSON file {"bonds": ["FIGI", ...]}`},
			&cli.Float64Flag{Name: "discount-rate", Value: 0.08, Usage: "annual market discount rate stored with every bond"},
			&cli.IntFlag{Name: "day-count", Value: 360, Usage: "days per year"},
			&cli.Float64Flag{Name: "tax-rate", Value: 0, Usage: "issuer income tax rate"},
			&cli.IntFlag{Name: "workers", Value: defaultFetchWorkers, Usage: "concurrent Invest API requests"},
			&cli.StringFlag{Name: "rabbitmq-url", EnvVars: []string{"RABBITMQ_URL"}, Usage: "announce imported bonds to the worker"},
			&cli.StringFlag{Name: "bonds-exchange", EnvVars: []string{"RABBITMQ_BONDS_EXCHANGE"}, Value: "bonds.changed"},
			&cli.StringFlag{Name: "log-level", EnvVars: []string{"LOG_LEVEL"}, Value: "info"},
		},
		Action: func(c *cli.Context) error {
			level, err := logrus.ParseLevel(c.String("log-level"))
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			return run(c, logger)
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Fatalf("import failed: %v", err)
	}
}

func run(c *cli.Context, logger *logrus.Logger) error {
	ctx := c.Context

	figis, err := collectFigis(c.StringSlice("figi"), c.String("figi-file"))
	if err != nil {
		return err
	}
	if len(figis) == 0 {
		return errors.New("no bonds to import: pass --figi or --figi-file")
	}

	repo, err := infrabonds.NewRepository(ctx, c.String("dsn"))
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer repo.Close()

	client, err := investgo.NewClient(ctx, investgo.Config{
		EndPoint:           c.String("endpoint"),
		Token:              c.String("token"),
		AppName:            c.String("app-name"),
		InsecureSkipVerify: c.Bool("insecure-skip-verify"),
	}, logger)
	if err != nil {
		return fmt.Errorf("create invest api client: %w", err)
	}
	defer func() {
		if stopErr := client.Stop(); stopErr != nil {
			logger.Errorf("stop invest api client: %v", stopErr)
		}
	}()

	source := investapi.NewSource(client.NewInstrumentsServiceClient(), investapi.Defaults{
		DiscountRate: c.Float64("discount-rate"),
		DayCount:     c.Int("day-count"),
		TaxRate:      c.Float64("tax-rate"),
	}, logger)

	imported, skipped := fetchAll(ctx, source, figis, c.Int("workers"), logger)
	if len(imported) == 0 {
		return fmt.Errorf("none of %d bonds could be imported", len(figis))
	}

	now := time.Now().UTC()
	for i := range imported {
		imported[i].CreatedAt, imported[i].UpdatedAt = now, now
	}
	if err := repo.UpsertBonds(ctx, imported); err != nil {
		return fmt.Errorf("save bonds: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"imported": len(imported),
		"skipped":  skipped,
	}).Info("bond terms synced")

	if url := c.String("rabbitmq-url"); url != "" {
		return announce(ctx, url, c.String("bonds-exchange"), imported, logger)
	}
	return nil
}

// fetchAll loads and validates every FIGI; bonds the engine cannot compute
// are logged and skipped.
func fetchAll(ctx context.Context, source termsSource, figis []string, workers int, logger logrus.FieldLogger) ([]domain.Terms, int) {
	if workers <= 0 {
		workers = defaultFetchWorkers
	}
	var (
		mu       sync.Mutex
		imported = make([]domain.Terms, 0, len(figis))
		skipped  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, figi := range figis {
		g.Go(func() error {
			terms, err := source.FetchTerms(gctx, figi)
			if err == nil {
				err = cashflow.Validate(terms)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				skipped++
				logger.WithError(err).WithField("figi", figi).Warn("skip bond")
				return nil
			}
			imported = append(imported, *terms)
			return nil
		})
	}
	_ = g.Wait()
	return imported, skipped
}

func announce(ctx context.Context, url, exchange string, list []domain.Terms, logger *logrus.Logger) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer conn.Close()

	pub, err := broker.NewPublisher(conn, config.RabbitMQConfig{
		URL:               url,
		BondsExchange:     exchange,
		CashflowsExchange: exchange,
	}, logger)
	if err != nil {
		return fmt.Errorf("init publisher: %w", err)
	}
	defer pub.Close()

	var errs []error
	for _, terms := range list {
		if err := pub.PublishBondChanged(ctx, terms.ID); err != nil {
			errs = append(errs, fmt.Errorf("bond %s: %w", terms.ID, err))
		}
	}
	return errors.Join(errs...)
}
