package config

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/texttheater/golang-levenshtein/levenshtein"
	"gopkg.in/yaml.v3"

	"archscan/internal/errors"
)

// Type providers.
const (
	ProviderTyped    = "typed"
	ProviderSource   = "source"
	ProviderSnapshot = "snapshot"
)

// Duplicate policies.
const (
	PolicyMerge  = "merge"
	PolicyReject = "reject"
)

// Matcher kinds.
const (
	MatchMarker     = "marker"
	MatchSuffix     = "suffix"
	MatchRegex      = "regex"
	MatchImplements = "implements"
	MatchExtends    = "extends"
)

// Strategy kinds.
const (
	StrategyFirstImplementation = "first-implementation"
	StrategyReferenced          = "referenced"
	StrategySamePackage         = "same-package"
)

var (
	providerKinds = []string{ProviderTyped, ProviderSource, ProviderSnapshot}
	policyKinds   = []string{PolicyMerge, PolicyReject}
	matcherKinds  = []string{MatchMarker, MatchSuffix, MatchRegex, MatchImplements, MatchExtends}
	strategyKinds = []string{StrategyFirstImplementation, StrategyReferenced, StrategySamePackage}
)

type Config struct {
	Project struct {
		Root string `yaml:"root"`
	} `yaml:"project"`

	Provider string `yaml:"provider"`
	// Snapshot is the YAML type universe read by the snapshot provider.
	Snapshot string `yaml:"snapshot"`

	Scope                  []string `yaml:"scope"`
	Exclusions             []string `yaml:"exclusions"`
	ClearDefaultExclusions bool     `yaml:"clear_default_exclusions"`

	DuplicatePolicy            string `yaml:"duplicate_policy"`
	ImplementationDependencies bool   `yaml:"implementation_dependencies"`

	Container string `yaml:"container"`
	Rules     []Rule `yaml:"rules"`
}

type Rule struct {
	Matcher     Matcher    `yaml:"matcher"`
	Description string     `yaml:"description"`
	Technology  string     `yaml:"technology"`
	Strategies  []Strategy `yaml:"strategies"`
}

type Matcher struct {
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

type Strategy struct {
	Kind      string `yaml:"kind"`
	Recursive bool   `yaml:"recursive"`
}

// Default returns the configuration used when no file is given: a typed scan
// of the current directory picking up types marked with "arch:component".
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Rules = []Rule{{
		Matcher:    Matcher{Kind: MatchMarker, Value: "arch:component"},
		Strategies: []Strategy{{Kind: StrategyReferenced}},
	}}
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "failed to parse %s", path)
	}

	// Paths in the file, and the default root, are relative to the file.
	base := filepath.Dir(path)
	if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Join(base, cfg.Project.Root)
	}
	if cfg.Snapshot != "" && !filepath.IsAbs(cfg.Snapshot) {
		cfg.Snapshot = filepath.Join(base, cfg.Snapshot)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if root := os.Getenv("ARCHSCAN_ROOT"); root != "" {
		c.Project.Root = root
	}
	if provider := os.Getenv("ARCHSCAN_PROVIDER"); provider != "" {
		c.Provider = provider
	}
	if snapshot := os.Getenv("ARCHSCAN_SNAPSHOT"); snapshot != "" {
		c.Snapshot = snapshot
	}
	if scope := os.Getenv("ARCHSCAN_SCOPE"); scope != "" {
		c.Scope = strings.Split(scope, ",")
	}
	if policy := os.Getenv("ARCHSCAN_DUPLICATE_POLICY"); policy != "" {
		c.DuplicatePolicy = policy
	}
	if v := os.Getenv("ARCHSCAN_IMPLEMENTATION_DEPENDENCIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ImplementationDependencies = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Project.Root == "" {
		c.Project.Root = "."
	}
	if c.Provider == "" {
		c.Provider = ProviderTyped
	}
	if c.DuplicatePolicy == "" {
		c.DuplicatePolicy = PolicyMerge
	}
	if c.Container == "" {
		c.Container = "Application"
	}
}

// Validate checks every kind and required value and reports all problems at
// once.
func (c *Config) Validate() error {
	var errs error

	if err := checkKind("provider", c.Provider, providerKinds); err != nil {
		errs = errors.Append(errs, err)
	}
	if c.Provider == ProviderSnapshot && c.Snapshot == "" {
		errs = errors.Append(errs, errors.NewConfigurationError("snapshot", "the snapshot provider needs a snapshot path"))
	}
	if err := checkKind("duplicate_policy", c.DuplicatePolicy, policyKinds); err != nil {
		errs = errors.Append(errs, err)
	}
	if len(c.Rules) == 0 {
		errs = errors.Append(errs, errors.NewConfigurationError("rules", "at least one rule is required"))
	}

	for i, r := range c.Rules {
		if err := checkKind("rules["+strconv.Itoa(i)+"].matcher.kind", r.Matcher.Kind, matcherKinds); err != nil {
			errs = errors.Append(errs, err)
		}
		if strings.TrimSpace(r.Matcher.Value) == "" {
			errs = errors.Append(errs, errors.NewConfigurationError("rules["+strconv.Itoa(i)+"].matcher.value", "must not be empty"))
		}
		for j, s := range r.Strategies {
			field := "rules[" + strconv.Itoa(i) + "].strategies[" + strconv.Itoa(j) + "].kind"
			if err := checkKind(field, s.Kind, strategyKinds); err != nil {
				errs = errors.Append(errs, err)
			}
		}
	}

	return errs
}

func checkKind(field, value string, known []string) error {
	for _, k := range known {
		if value == k {
			return nil
		}
	}
	if s := suggest(value, known); s != "" {
		return errors.NewConfigurationError(field, "unknown value %q, did you mean %q?", value, s)
	}
	return errors.NewConfigurationError(field, "unknown value %q, expected one of %s", value, strings.Join(known, ", "))
}

// suggest returns the known value closest to value, if it is close enough to
// be a typo.
func suggest(value string, known []string) string {
	if value == "" {
		return ""
	}
	type candidate struct {
		name string
		dist int
	}
	var cands []candidate
	for _, k := range known {
		d := levenshtein.DistanceForStrings([]rune(strings.ToLower(value)), []rune(k), levenshtein.DefaultOptions)
		if d <= len(k)/3+1 {
			cands = append(cands, candidate{k, d})
		}
	}
	if len(cands) == 0 {
		return ""
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	return cands[0].name
}
