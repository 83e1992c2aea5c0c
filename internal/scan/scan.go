// Package scan assembles a discovery run from a configuration: type provider,
// repository, rules and finder.
package scan

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"archscan/internal/config"
	"archscan/internal/discovery"
	"archscan/internal/errors"
	"archscan/internal/graph"
	"archscan/internal/matcher"
	"archscan/internal/model"
	"archscan/internal/strategy"
	"archscan/internal/typerepo"
	"archscan/internal/typerepo/memory"
	"archscan/internal/typerepo/source"
	"archscan/internal/typerepo/typed"
)

// Result is the outcome of one scan.
type Result struct {
	Graph    *graph.Graph       `json:"graph"`
	Failures []typerepo.Failure `json:"-"`
}

// Run validates cfg, loads the type universe and runs component discovery.
func Run(cfg *config.Config, log logrus.FieldLogger) (*Result, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, modulePath, err := loadProvider(cfg, log)
	if err != nil {
		return nil, err
	}

	scope := cfg.Scope
	if len(scope) == 0 && modulePath != "" {
		scope = []string{modulePath}
	}
	opts := []typerepo.Option{typerepo.WithLogger(log), typerepo.WithExclusions(cfg.Exclusions...)}
	if cfg.ClearDefaultExclusions {
		opts = append(opts, typerepo.WithoutDefaultExclusions())
	}
	repo, err := typerepo.NewRepository(provider, scope, opts...)
	if err != nil {
		return nil, err
	}

	rules, err := BuildRules(cfg.Rules, repo)
	if err != nil {
		return nil, err
	}

	finderOpts := []discovery.Option{discovery.WithLogger(log)}
	if cfg.DuplicatePolicy == config.PolicyReject {
		finderOpts = append(finderOpts, discovery.WithDuplicatePolicy(discovery.RejectPolicy{}))
	}
	if cfg.ImplementationDependencies {
		finderOpts = append(finderOpts, discovery.WithImplementationDependencies())
	}

	finder, err := discovery.NewFinder(repo, model.NewContainer(cfg.Container), rules, finderOpts...)
	if err != nil {
		return nil, err
	}
	g, err := finder.Run()
	if err != nil {
		return nil, err
	}

	failures := repo.Failures()
	if len(failures) > 0 {
		log.WithField("failures", len(failures)).Warn("some types could not be inspected")
	}
	return &Result{Graph: g, Failures: failures}, nil
}

func loadProvider(cfg *config.Config, log logrus.FieldLogger) (typerepo.Provider, string, error) {
	log.WithFields(logrus.Fields{"provider": cfg.Provider, "root": cfg.Project.Root}).Debug("loading types")

	switch cfg.Provider {
	case config.ProviderTyped:
		p, err := typed.Load(cfg.Project.Root, log)
		if err != nil {
			return nil, "", err
		}
		return p, p.ModulePath(), nil
	case config.ProviderSource:
		p, err := source.Load(cfg.Project.Root, log)
		if err != nil {
			return nil, "", err
		}
		return p, p.ModulePath(), nil
	case config.ProviderSnapshot:
		if len(cfg.Scope) == 0 {
			return nil, "", errors.NewConfigurationError("scope", "a snapshot scan needs an explicit scope")
		}
		u, err := memory.Load(cfg.Snapshot)
		if err != nil {
			return nil, "", errors.WithStackTrace(err)
		}
		return u, "", nil
	}
	return nil, "", errors.NewConfigurationError("provider", "unknown provider %q", cfg.Provider)
}

// BuildRules turns configured rules into discovery rules backed by repo.
func BuildRules(rules []config.Rule, repo *typerepo.Repository) ([]discovery.Rule, error) {
	out := make([]discovery.Rule, 0, len(rules))
	for i, r := range rules {
		m, err := buildMatcher(r, repo)
		if err != nil {
			return nil, errors.WithStackTraceAndPrefix(err, "rule %d", i)
		}
		rule := discovery.Rule{Matcher: m}
		for _, s := range r.Strategies {
			st, err := buildStrategy(s, repo)
			if err != nil {
				return nil, errors.WithStackTraceAndPrefix(err, "rule %d", i)
			}
			rule.Strategies = append(rule.Strategies, st)
		}
		out = append(out, rule)
	}
	return out, nil
}

func buildMatcher(r config.Rule, repo *typerepo.Repository) (matcher.Matcher, error) {
	switch r.Matcher.Kind {
	case config.MatchMarker:
		return matcher.NewMarker(r.Matcher.Value, r.Description, r.Technology)
	case config.MatchSuffix:
		return matcher.NewNameSuffix(r.Matcher.Value, r.Description, r.Technology)
	case config.MatchRegex:
		return matcher.NewRegex(r.Matcher.Value, r.Description, r.Technology)
	case config.MatchImplements:
		return matcher.NewImplementsInterface(repo, r.Matcher.Value, r.Description, r.Technology)
	case config.MatchExtends:
		return matcher.NewExtendsClass(repo, r.Matcher.Value, r.Description, r.Technology)
	}
	return nil, errors.NewConfigurationError("matcher", "unknown kind %q", r.Matcher.Kind)
}

func buildStrategy(s config.Strategy, repo *typerepo.Repository) (strategy.Strategy, error) {
	switch s.Kind {
	case config.StrategyFirstImplementation:
		return strategy.NewFirstImplementation(repo), nil
	case config.StrategyReferenced:
		return strategy.NewReferencedTypes(repo, s.Recursive), nil
	case config.StrategySamePackage:
		return strategy.NewReferencedTypesInSamePackage(repo, s.Recursive), nil
	}
	return nil, errors.NewConfigurationError("strategy", "unknown kind %q", s.Kind)
}

// SaveGraph writes g as indented JSON to path.
func SaveGraph(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create graph file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(g); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return nil
}

// LoadGraph reads a graph written by SaveGraph.
func LoadGraph(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	g := graph.NewGraph()
	if err := json.NewDecoder(f).Decode(g); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	return g, nil
}
