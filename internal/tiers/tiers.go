// Package tiers ranks source URLs by how authoritative their domain is.
package tiers

import (
	_ "embed"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// UnrankedLabel is shown for sources whose domain is not in any tier.
const UnrankedLabel = "Unranked"

//go:embed tiers.yaml
var defaultTable []byte

type Tier struct {
	Tier    int      `yaml:"tier"`
	Label   string   `yaml:"label"`
	Weight  float64  `yaml:"weight"`
	Domains []string `yaml:"domains"`
}

type Table struct {
	Tiers []Tier `yaml:"tiers"`
}

// Match is the result of a successful classification.
type Match struct {
	Tier   int
	Label  string
	Weight float64
}

type Classifier struct {
	tiers []Tier
}

// ParseTable decodes a YAML tier table.
func ParseTable(raw []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Table{}, eris.Wrap(err, "tiers: decode table")
	}
	return t, nil
}

// Default returns a classifier over the embedded tier table.
func Default() (*Classifier, error) {
	t, err := ParseTable(defaultTable)
	if err != nil {
		return nil, err
	}
	return New(t)
}

// Load reads a tier table from path, falling back to the embedded table when path is empty.
func Load(path string) (*Classifier, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tiers: read %s", path)
	}
	t, err := ParseTable(raw)
	if err != nil {
		return nil, err
	}
	return New(t)
}

// New validates the table and builds a classifier. Tiers must be numbered
// 1..n in order, and a domain may appear in only one tier.
func New(t Table) (*Classifier, error) {
	if len(t.Tiers) == 0 {
		return nil, eris.New("tiers: table is empty")
	}

	owner := make(map[string]int)
	tiers := make([]Tier, 0, len(t.Tiers))
	for i, tr := range t.Tiers {
		if tr.Tier != i+1 {
			return nil, eris.Errorf("tiers: entry %d has tier %d, want %d", i, tr.Tier, i+1)
		}
		if strings.TrimSpace(tr.Label) == "" {
			return nil, eris.Errorf("tiers: tier %d has no label", tr.Tier)
		}
		if tr.Weight < 0 || tr.Weight > 1 {
			return nil, eris.Errorf("tiers: tier %d weight %v outside [0,1]", tr.Tier, tr.Weight)
		}

		domains := make([]string, 0, len(tr.Domains))
		for _, d := range tr.Domains {
			d = strings.ToLower(strings.TrimSpace(d))
			d = strings.TrimPrefix(d, "www.")
			if d == "" {
				continue
			}
			if prev, ok := owner[d]; ok {
				if prev == tr.Tier {
					continue
				}
				return nil, eris.Errorf("tiers: domain %q listed in tier %d and tier %d", d, prev, tr.Tier)
			}
			owner[d] = tr.Tier
			domains = append(domains, d)
		}
		tr.Domains = domains
		tiers = append(tiers, tr)
	}

	return &Classifier{tiers: tiers}, nil
}

// Classify returns the first tier whose domain list matches the URL's host,
// or nil for malformed or unranked URLs.
func (c *Classifier) Classify(rawURL string) *Match {
	host := hostOf(rawURL)
	if host == "" {
		return nil
	}

	for _, tr := range c.tiers {
		for _, d := range tr.Domains {
			if host == d || strings.HasSuffix(host, "."+d) {
				return &Match{Tier: tr.Tier, Label: tr.Label, Weight: tr.Weight}
			}
		}
	}
	return nil
}

// Labels returns tier labels in priority order.
func (c *Classifier) Labels() []string {
	out := make([]string, 0, len(c.tiers))
	for _, tr := range c.tiers {
		out = append(out, tr.Label)
	}
	return out
}

// Tiers returns a copy of the validated table.
func (c *Classifier) Tiers() []Tier {
	out := make([]Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}
