package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/taylorfit/backend/internal/domain"
	"github.com/taylorfit/backend/internal/infrastructure/chartfile"
	"github.com/taylorfit/backend/internal/usecase"
)

// chartFlags are shared by every command that reads a chart
func chartFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "Size chart file (.json, .csv, .xlsx or .xls)",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "header-row",
			Value: 1,
			Usage: "1-based row holding the column headers (spreadsheets and CSV)",
		},
		&cli.StringFlag{
			Name:  "title",
			Usage: "Chart title (defaults to the file name)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Value:   "text",
			Usage:   "Output format (text, json)",
		},
	}
}

func normalizeCommand() *cli.Command {
	return &cli.Command{
		Name:   "normalize",
		Usage:  "Convert a size chart to centimeters and show how its columns were classified",
		Flags:  chartFlags(),
		Action: runNormalize,
	}
}

func recommendCommand() *cli.Command {
	flags := chartFlags()
	for _, def := range domain.StandardMeasurements {
		flags = append(flags, &cli.Float64Flag{
			Name:  flagName(def.ID),
			Usage: fmt.Sprintf("Your %s measurement", def.ID),
		})
	}
	flags = append(flags,
		&cli.StringFlag{
			Name:  "unit",
			Value: "cm",
			Usage: "Unit of the measurement flags (cm, in)",
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "TOML file with stored measurements; flags override its values",
		},
		&cli.StringFlag{
			Name:  "fallback",
			Value: usecase.FallbackChestAround,
			Usage: "Strategy for sizes with nothing comparable (chest_around, none)",
		},
	)

	return &cli.Command{
		Name:   "recommend",
		Usage:  "Recommend the best-fitting size of a chart",
		Flags:  flags,
		Action: runRecommend,
	}
}

// flagName turns chestPitToPit into chest-pit-to-pit
func flagName(id domain.CanonicalMeasurement) string {
	var b strings.Builder
	for i, r := range string(id) {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func newLogger(c *cli.Context) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(c.String("log-level"))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: c.App.ErrWriter}).Level(lvl).With().Timestamp().Logger()
}

func newService(logger zerolog.Logger, fallback string) *usecase.SizingService {
	return usecase.NewSizingService(nil, nil, chartfile.NewReader(logger), logger, usecase.SizingServiceConfig{
		Fallback: fallback,
	})
}

// loadChart reads a JSON chart directly and everything else through the chart file reader
func loadChart(c *cli.Context, logger zerolog.Logger) (*domain.RawSizeChart, error) {
	path := c.String("file")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var raw *domain.RawSizeChart
	if strings.EqualFold(filepath.Ext(path), ".json") {
		raw = &domain.RawSizeChart{}
		if err := json.NewDecoder(f).Decode(raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidChart, path, err)
		}
	} else {
		raw, err = chartfile.NewReader(logger).ReadChart(f, path, c.Int("header-row"))
		if err != nil {
			return nil, err
		}
	}
	if title := c.String("title"); title != "" {
		raw.Title = title
	}
	return raw, nil
}

func runNormalize(c *cli.Context) error {
	logger := newLogger(c)
	raw, err := loadChart(c, logger)
	if err != nil {
		return err
	}

	chart, err := newService(logger, "").NormalizeChart(context.Background(), raw)
	if err != nil {
		return err
	}

	if c.String("output") == "json" {
		return writeJSON(c.App.Writer, chart)
	}
	return writeChart(c.App.Writer, chart)
}

func runRecommend(c *cli.Context) error {
	logger := newLogger(c)

	fallback := c.String("fallback")
	if fallback != usecase.FallbackChestAround && fallback != usecase.FallbackNone {
		return fmt.Errorf("unknown fallback %q", fallback)
	}

	raw, err := loadChart(c, logger)
	if err != nil {
		return err
	}

	user, err := collectMeasurements(c)
	if err != nil {
		return err
	}
	wire := make(map[string]*float64, len(user))
	for id, v := range user {
		wire[string(id)] = &v
	}

	result, err := newService(logger, fallback).Recommend(context.Background(), &domain.RecommendRequest{
		Chart:        raw,
		Measurements: wire,
	})
	if err != nil {
		return err
	}

	if c.String("output") == "json" {
		return writeJSON(c.App.Writer, result)
	}
	return writeRecommendation(c.App.Writer, result)
}

// collectMeasurements merges the profile file with the measurement flags, in centimeters
func collectMeasurements(c *cli.Context) (domain.UserMeasurements, error) {
	user := domain.UserMeasurements{}
	if path := c.String("profile"); path != "" {
		p, err := loadProfile(path)
		if err != nil {
			return nil, err
		}
		user = p
	}

	unit := usecase.NormalizeUnit(c.String("unit"))
	if unit == "" {
		return nil, fmt.Errorf("unknown unit %q", c.String("unit"))
	}
	for _, def := range domain.StandardMeasurements {
		name := flagName(def.ID)
		if !c.IsSet(name) {
			continue
		}
		v := c.Float64(name)
		user[def.ID] = usecase.Convert(domain.SingleValue(v), unit, usecase.UnitCentimeters).Lo
	}

	if user.Available() == 0 {
		return nil, fmt.Errorf("%w: pass at least one measurement flag or --profile", domain.ErrNoMeasurements)
	}
	return user, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeChart(w io.Writer, chart *domain.NormalizedSizeChart) error {
	fmt.Fprintf(w, "%s\n\n", chart.Title)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(chart.Headers, "\t"))
	for _, row := range chart.Sizes {
		cells := []string{row.Size}
		for _, h := range chart.Headers[1:] {
			cells = append(cells, row.Cells[h].Text)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	headers := make([]string, 0, len(chart.Report.Matched))
	for h := range chart.Report.Matched {
		headers = append(headers, h)
	}
	sort.Strings(headers)
	for _, h := range headers {
		m := chart.Report.Matched[h]
		fmt.Fprintf(w, "matched   %-28s -> %s (%s, %s)\n", h, m.Canonical, m.Confidence, m.Reason)
	}
	for _, h := range chart.Report.Unmatched {
		fmt.Fprintf(w, "unmatched %s\n", h)
	}
	for _, warning := range chart.Warnings {
		fmt.Fprintf(w, "warning   %s/%s: %s\n", warning.Size, warning.Header, warning.Message)
	}
	return nil
}

func writeRecommendation(w io.Writer, result *domain.RecommendResult) error {
	rec := result.Recommendation
	if !rec.Actionable {
		fmt.Fprintln(w, "No recommendation: none of your measurements could be compared with this chart.")
	} else {
		fmt.Fprintf(w, "Recommended size: %s (average cost %.2f cm over %d measurement(s))\n",
			rec.Size, rec.AverageCost, rec.ComparedMeasurements)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SIZE\tCOMPARED\tTOTAL\tAVERAGE")
	for _, sc := range rec.Sizes {
		avg := "-"
		if sc.Comparable() {
			avg = fmt.Sprintf("%.2f", sc.AverageCost)
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%s\n", sc.Size, sc.ComparedMeasurements, sc.TotalCost, avg)
	}
	return tw.Flush()
}
