package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/epeers/marketsync/config"
	"github.com/epeers/marketsync/internal/listing"
	"github.com/epeers/marketsync/internal/models"
	"github.com/epeers/marketsync/internal/services"
	"gopkg.in/yaml.v3"
)

// planFile is the YAML layout of a loader plan.
type planFile struct {
	Steps []services.PlanStep `yaml:"steps"`
}

// loadPlan reads a YAML plan, expanding ${VAR} references first.
func loadPlan(path string) ([]services.PlanStep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	return parsePlan(os.ExpandEnv(string(data)))
}

func parsePlan(doc string) ([]services.PlanStep, error) {
	var pf planFile
	if err := yaml.Unmarshal([]byte(doc), &pf); err != nil {
		return nil, fmt.Errorf("parse plan yaml: %w", err)
	}
	if len(pf.Steps) == 0 {
		return nil, fmt.Errorf("plan has no steps")
	}
	for i := range pf.Steps {
		kind, ok := models.ParseSyncKind(strings.TrimSpace(string(pf.Steps[i].Kind)))
		if !ok {
			return nil, fmt.Errorf("step %d: unknown kind %q", i+1, pf.Steps[i].Kind)
		}
		pf.Steps[i].Kind = kind
	}
	return pf.Steps, nil
}

// options are the single-run flags.
type options struct {
	kind     string
	keywords string
	source   string
	file     string
	exchange string
	symbols  string
	region   string
	limit    int
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// buildSteps turns the flags into a plan. Kind "all" registers symbols from
// every configured listing file and then refreshes each data kind.
func buildSteps(opts options, cfg *config.Config) ([]services.PlanStep, error) {
	sel := models.SyncSelection{
		Region:  opts.region,
		Symbols: splitList(opts.symbols),
		Limit:   opts.limit,
	}

	if opts.kind == "all" {
		var steps []services.PlanStep
		listings := []struct {
			path string
			ex   listing.Exchange
			kind models.SyncKind
		}{
			{cfg.NasdaqFile, listing.Nasdaq, models.SyncSymbols},
			{cfg.NYSEFile, listing.NYSE, models.SyncSymbols},
			{cfg.DigitalFile, listing.Digital, models.SyncDigitalSymbols},
		}
		for _, l := range listings {
			if l.path != "" {
				steps = append(steps, services.PlanStep{Kind: l.kind, File: l.path, Exchange: string(l.ex)})
			}
		}
		return append(steps, services.DefaultPlan(sel)...), nil
	}

	kind, ok := models.ParseSyncKind(opts.kind)
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", opts.kind)
	}
	step := services.PlanStep{
		Kind:      kind,
		Keywords:  splitList(opts.keywords),
		Source:    opts.source,
		File:      opts.file,
		Exchange:  opts.exchange,
		Selection: sel,
	}
	if step.File == "" && step.Keywords == nil && step.Source == "" {
		step.File, step.Exchange = defaultListing(kind, opts.exchange, cfg)
	}
	return []services.PlanStep{step}, nil
}

// defaultListing picks the configured listing file for a symbol step given
// no other input.
func defaultListing(kind models.SyncKind, exchange string, cfg *config.Config) (string, string) {
	if kind == models.SyncDigitalSymbols {
		return cfg.DigitalFile, string(listing.Digital)
	}
	if kind != models.SyncSymbols {
		return "", exchange
	}
	if ex, err := listing.ParseExchange(exchange); err == nil && ex == listing.NYSE {
		return cfg.NYSEFile, string(listing.NYSE)
	}
	if cfg.NasdaqFile != "" {
		return cfg.NasdaqFile, string(listing.Nasdaq)
	}
	return "", exchange
}
