package tabs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Links of the built-in tree. Routes and filters refer to tabs by these.
const (
	LinkPartyTrends           = "party-trends"
	LinkConstituencies        = "constituencies"
	LinkCountries             = "countries"
	LinkStrengthOfParties     = "strength-of-political-parties-across-the-uk"
	LinkLeadingByIssue        = "leading-party-by-issue"
	LinkLeadingByConstituency = "leading-party-for-each-constituency"
	LinkMarginals             = "leading-parties-in-marginal-constituencies"
)

// NodeConfig describes one tab in tabs.yaml.
type NodeConfig struct {
	Name        string       `yaml:"name"`
	Link        string       `yaml:"link"`
	Kind        string       `yaml:"kind,omitempty"`
	Description string       `yaml:"description,omitempty"` // markdown
	Children    []NodeConfig `yaml:"children,omitempty"`
}

// Config is the static tab configuration the tree is built from.
type Config struct {
	Tabs []NodeConfig `yaml:"tabs"`
}

// DefaultConfig returns the dashboard's built-in tab layout.
func DefaultConfig() Config {
	return Config{
		Tabs: []NodeConfig{
			{
				Name: "Party trends", Link: LinkPartyTrends, Kind: "party-trends",
				Children: []NodeConfig{
					{
						Name: "Strength of political parties across the UK", Link: LinkStrengthOfParties, Kind: "chloropleth",
						Description: "Pick a party to colour each constituency by its **share of the vote**.",
					},
					{
						Name: "Leading party by issue", Link: LinkLeadingByIssue, Kind: "leading-by-issue",
						Description: "Votes per party for every *policy area*, largest issues first.",
					},
					{
						Name: "Leading party for each constituency", Link: LinkLeadingByConstituency, Kind: "leading-by-constituency",
					},
					{
						Name: "Leading parties in the marginal constituencies", Link: LinkMarginals, Kind: "marginals",
					},
				},
			},
			{Name: "Constituencies", Link: LinkConstituencies, Kind: "constituencies"},
			{Name: "Countries", Link: LinkCountries, Kind: "countries"},
		},
	}
}

// LoadFrom reads a tab configuration from path.
// Returns DefaultConfig if path is empty or the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("reading tabs config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing tabs config: %w", err)
	}
	if len(cfg.Tabs) == 0 {
		return Config{}, fmt.Errorf("tabs config %s defines no tabs", path)
	}
	return cfg, nil
}

// Build turns a configuration into a validated tree with nothing selected.
func Build(cfg Config) (*Tree, error) {
	root := &Node{Name: "root", Kind: KindRoot}
	for _, c := range cfg.Tabs {
		root.Children = append(root.Children, buildNode(c))
	}
	return NewTree(root)
}

func buildNode(c NodeConfig) *Node {
	n := &Node{
		Name:        c.Name,
		Link:        c.Link,
		Kind:        ParseKind(c.Kind),
		Description: c.Description,
	}
	for _, child := range c.Children {
		n.Children = append(n.Children, buildNode(child))
	}
	return n
}
