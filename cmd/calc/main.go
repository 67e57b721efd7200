package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	appcashflows "github.com/Eduvent/bono-app-sub002/internal/application/service/cashflows"
	domain "github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
	"github.com/Eduvent/bono-app-sub002/internal/interfaces/export"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	app := &cli.App{
		Name:      "calc",
		Usage:     "compute the cash-flow schedule of a bond terms file",
		ArgsUsage: "TERMS_FILE (.yaml, .yml or .json; - reads YAML from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "role", Aliases: []string{"r"}, Value: string(domain.RoleInvestor), Usage: "issuer or investor"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "json or csv"},
			&cli.IntFlag{Name: "from", Usage: "first period"},
			&cli.IntFlag{Name: "to", Usage: "last period"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file, stdout when empty"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("exactly one terms file is required", 2)
			}
			terms, err := loadTerms(c.Args().First(), os.Stdin)
			if err != nil {
				return err
			}

			opts := options{Role: c.String("role"), Format: c.String("format")}
			if c.IsSet("from") {
				from := c.Int("from")
				opts.From = &from
			}
			if c.IsSet("to") {
				to := c.Int("to")
				opts.To = &to
			}

			out := io.Writer(os.Stdout)
			if path := c.String("out"); path != "" {
				f, err := os.Create(filepath.Clean(path))
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			start := time.Now()
			resp, err := render(out, terms, opts, logger)
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{
				"bond_uid": resp.BondID,
				"rows":     resp.Metadata.RowCount,
				"partial":  resp.Partial,
				"took_ms":  time.Since(start).Milliseconds(),
			}).Debug("schedule rendered")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatalf("calc failed: %v", err)
	}
}

type options struct {
	Role   string
	Format string
	From   *int
	To     *int
}

// loadTerms reads YAML or JSON terms; the extension decides, stdin is YAML
// (a superset of JSON).
func loadTerms(path string, stdin io.Reader) (*domain.Terms, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read terms: %w", err)
	}

	terms := &domain.Terms{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, terms)
	} else {
		err = yaml.Unmarshal(data, terms)
	}
	if err != nil {
		return nil, fmt.Errorf("parse terms %s: %w", path, err)
	}
	return terms, nil
}

func render(w io.Writer, terms *domain.Terms, opts options, logger logrus.FieldLogger) (*appcashflows.Response, error) {
	role, err := domain.NewRole(opts.Role)
	if err != nil {
		return nil, err
	}
	if terms.ID == uuid.Nil {
		terms.ID = uuid.New()
	}
	schedule, err := appcashflows.NewSchedule(terms, time.Now())
	if err != nil {
		return nil, err
	}
	if schedule.MetricsError != "" {
		logger.WithField("bond_uid", terms.ID).Warnf("partial metrics: %s", schedule.MetricsError)
	}

	svc := appcashflows.NewService(nil, nil, nil, 1, logger)
	resp, err := svc.BuildResponse(terms, schedule, appcashflows.Query{
		BondID:     terms.ID,
		Role:       role,
		PeriodFrom: opts.From,
		PeriodTo:   opts.To,
	})
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(opts.Format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(resp)
	case "csv":
		if role == domain.RoleIssuer {
			err = export.WriteIssuerCSV(w, resp.IssuerPeriods)
		} else {
			err = export.WriteInvestorCSV(w, resp.InvestorPeriods)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", opts.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", opts.Format, err)
	}
	return resp, nil
}
