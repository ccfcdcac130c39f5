package schema

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bucket is the expected item count for one value of a grouped field.
type Bucket struct {
	Value string
	Count int
}

// Distribution is an ordered set of expected per-value counts.
type Distribution []Bucket

// ParseDistribution reads the "easy=3,medium=2,hard=1" form.
func ParseDistribution(s string) (Distribution, error) {
	var d Distribution
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, count, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("distribution entry %q: want value=count", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil {
			return nil, fmt.Errorf("distribution entry %q: %w", part, err)
		}
		d = append(d, Bucket{Value: normalizeEnum(value), Count: n})
	}
	if len(d) == 0 {
		return nil, fmt.Errorf("empty distribution %q", s)
	}
	return d, nil
}

// Total returns the sum of all bucket counts.
func (d Distribution) Total() int {
	total := 0
	for _, b := range d {
		total += b.Count
	}
	return total
}

func (d Distribution) String() string {
	parts := make([]string, len(d))
	for i, b := range d {
		parts[i] = fmt.Sprintf("%s=%d", b.Value, b.Count)
	}
	return strings.Join(parts, ",")
}

// UnmarshalYAML decodes a mapping such as {easy: 3, medium: 2, hard: 1}, keeping the
// order in which the values are written.
func (d *Distribution) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: distribution must be a mapping", node.Line)
	}
	out := make(Distribution, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var n int
		if err := node.Content[i+1].Decode(&n); err != nil {
			return fmt.Errorf("line %d: count for %q: %w", node.Content[i+1].Line, node.Content[i].Value, err)
		}
		out = append(out, Bucket{Value: normalizeEnum(node.Content[i].Value), Count: n})
	}
	*d = out
	return nil
}

// MarshalYAML encodes d as an ordered mapping.
func (d Distribution) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, b := range d {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: b.Value},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(b.Count)},
		)
	}
	return node, nil
}

// Config holds the deployment-specific parameters of the plan schemas.
type Config struct {
	ChallengeCount        int          `yaml:"challenge_count"`
	ChallengeDistribution Distribution `yaml:"challenge_distribution"`
	DailyTaskCount        int          `yaml:"daily_task_count"`
}

// DefaultConfig is six challenges split 3 easy, 2 medium, 1 hard, and three daily tasks.
func DefaultConfig() Config {
	return Config{
		ChallengeCount: 6,
		ChallengeDistribution: Distribution{
			{Value: "easy", Count: 3},
			{Value: "medium", Count: 2},
			{Value: "hard", Count: 1},
		},
		DailyTaskCount: 3,
	}
}

// LoadConfig reads a YAML config file over DefaultConfig. When the file sets a
// distribution but no count, the count is the distribution total.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read schema config %s: %w", path, err)
	}

	var file struct {
		ChallengeCount        *int         `yaml:"challenge_count"`
		ChallengeDistribution Distribution `yaml:"challenge_distribution"`
		DailyTaskCount        *int         `yaml:"daily_task_count"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("failed to parse schema config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if file.ChallengeDistribution != nil {
		cfg = cfg.WithDistribution(file.ChallengeDistribution)
	}
	if file.ChallengeCount != nil {
		cfg.ChallengeCount = *file.ChallengeCount
	}
	if file.DailyTaskCount != nil {
		cfg.DailyTaskCount = *file.DailyTaskCount
	}
	return cfg, cfg.Validate()
}

// WithDistribution returns a copy of c using d and its total as the challenge count.
func (c Config) WithDistribution(d Distribution) Config {
	c.ChallengeDistribution = slices.Clone(d)
	c.ChallengeCount = d.Total()
	return c
}

// Validate rejects configs whose distribution cannot be satisfied.
func (c Config) Validate() error {
	if c.ChallengeCount <= 0 {
		return fmt.Errorf("challenge_count must be positive, got %d", c.ChallengeCount)
	}
	if c.DailyTaskCount <= 0 {
		return fmt.Errorf("daily_task_count must be positive, got %d", c.DailyTaskCount)
	}
	if len(c.ChallengeDistribution) == 0 {
		return fmt.Errorf("challenge_distribution is empty")
	}
	seen := map[string]bool{}
	for _, b := range c.ChallengeDistribution {
		if !slices.Contains(Difficulties, b.Value) {
			return fmt.Errorf("challenge_distribution: unknown difficulty %q", b.Value)
		}
		if seen[b.Value] {
			return fmt.Errorf("challenge_distribution: duplicate difficulty %q", b.Value)
		}
		seen[b.Value] = true
		if b.Count < 0 {
			return fmt.Errorf("challenge_distribution: negative count for %q", b.Value)
		}
	}
	if total := c.ChallengeDistribution.Total(); total != c.ChallengeCount {
		return fmt.Errorf("challenge_distribution %s sums to %d, want challenge_count %d",
			c.ChallengeDistribution, total, c.ChallengeCount)
	}
	return nil
}
