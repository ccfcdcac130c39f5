package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Lllllllleong/ecoaction/internal/schema/schematest"
)

func TestNewRegistry_RejectsInconsistentConfig(t *testing.T) {
	tests := map[string]Config{
		"sum mismatch": {
			ChallengeCount:        6,
			ChallengeDistribution: Distribution{{"easy", 3}, {"medium", 2}, {"hard", 2}},
			DailyTaskCount:        3,
		},
		"unknown tier": {
			ChallengeCount:        2,
			ChallengeDistribution: Distribution{{"easy", 1}, {"legendary", 1}},
			DailyTaskCount:        3,
		},
		"duplicate tier": {
			ChallengeCount:        2,
			ChallengeDistribution: Distribution{{"easy", 1}, {"easy", 1}},
			DailyTaskCount:        3,
		},
		"no daily tasks": {
			ChallengeCount:        1,
			ChallengeDistribution: Distribution{{"easy", 1}},
		},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewRegistry(cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewRegistry_CustomDistribution(t *testing.T) {
	dist, err := ParseDistribution("easy=2, medium=2,hard=2")
	require.NoError(t, err)
	reg, err := NewRegistry(DefaultConfig().WithDistribution(dist))
	require.NoError(t, err)
	assert.Equal(t, 6, reg.Config().ChallengeCount)

	_, err = reg.Validate(schematest.ChallengePlan("easy", "easy", "medium", "medium", "hard", "hard"), KindChallengePlan)
	assert.NoError(t, err)

	_, err = reg.Validate(schematest.ChallengePlan(schematest.DefaultDifficulties...), KindChallengePlan)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestParseDistribution(t *testing.T) {
	dist, err := ParseDistribution("Easy=3,medium=2,hard=1")
	require.NoError(t, err)
	assert.Equal(t, Distribution{{"easy", 3}, {"medium", 2}, {"hard", 1}}, dist)
	assert.Equal(t, 6, dist.Total())
	assert.Equal(t, "easy=3,medium=2,hard=1", dist.String())

	for _, bad := range []string{"", "easy", "easy=x", " , "} {
		_, err := ParseDistribution(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
challenge_distribution:
  hard: 1
  easy: 2
  medium: 2
daily_task_count: 4
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.ChallengeCount)
	assert.Equal(t, 4, cfg.DailyTaskCount)
	assert.Equal(t, Distribution{{"hard", 1}, {"easy", 2}, {"medium", 2}}, cfg.ChallengeDistribution)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	mismatch := filepath.Join(dir, "mismatch.yaml")
	require.NoError(t, os.WriteFile(mismatch, []byte("challenge_count: 7\n"), 0o600))
	_, err = LoadConfig(mismatch)
	assert.ErrorContains(t, err, "sums to 6")

	notMapping := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(notMapping, []byte("challenge_distribution: [easy, hard]\n"), 0o600))
	_, err = LoadConfig(notMapping)
	assert.ErrorContains(t, err, "must be a mapping")
}

func TestConfig_MarshalYAMLKeepsOrder(t *testing.T) {
	out, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "challenge_count: 6\n"+
		"challenge_distribution:\n"+
		"    easy: 3\n"+
		"    medium: 2\n"+
		"    hard: 1\n"+
		"daily_task_count: 3\n", string(out))
}

func TestRegistry_Compatible(t *testing.T) {
	reg := DefaultRegistry()

	for _, v := range []string{"1.0.0", "1.0.3", "1.4.0"} {
		assert.NoError(t, reg.Compatible(v), v)
	}
	for _, v := range []string{"0.9.0", "2.0.0", "not-a-version"} {
		assert.ErrorIs(t, reg.Compatible(v), ErrIncompatibleVersion, v)
	}
}

func TestRegistry_Restore(t *testing.T) {
	reg := DefaultRegistry()

	doc, err := reg.Restore(KindProfile, "1.0.0", schematest.Profile())
	require.NoError(t, err)
	assert.Equal(t, KindProfile, doc.Kind())

	_, err = reg.Restore(KindProfile, "2.1.0", schematest.Profile())
	assert.ErrorIs(t, err, ErrIncompatibleVersion)

	broken := schematest.Profile()
	delete(broken, "key_levers")
	_, err = reg.Restore(KindProfile, "1.0.0", broken)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestRegistry_Schemas(t *testing.T) {
	schemas := DefaultRegistry().Schemas()
	require.Len(t, schemas, len(Kinds))
	for i, s := range schemas {
		assert.Equal(t, Kinds[i], s.Kind)
		assert.Equal(t, Version, s.Version)
		assert.NotEmpty(t, s.Fields)
	}

	plan := schemas[2]
	require.Len(t, plan.Invariants, 2)
	assert.Equal(t, "len(challenges) == 6", plan.Invariants[0].String())
	assert.Equal(t, "count(challenges by difficulty) == {easy=3,medium=2,hard=1}", plan.Invariants[1].String())
}
