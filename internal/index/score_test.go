package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchetrix/resourcesearch/pkg/config"
)

func TestScoreBonuses(t *testing.T) {
	sc := newScorer(config.DefaultScoring(), []string{"nginx"}, "nginx")
	record := Record{"name": "nginx-pod", "namespace": "default"}

	score, matched := sc.score(record, []string{"name", "namespace"})
	// phrase 5.0 + term 1.0 + boundary 0.5 + prefix 1.0, weighted by
	// name=3.0, over 1 term * 7.5 * 3.0
	assert.InDelta(t, 1.0, score, 1e-9)
	assert.Equal(t, []string{"name"}, matched)
}

func TestScoreNoBoundaryInsideToken(t *testing.T) {
	sc := newScorer(config.DefaultScoring(), []string{"red"}, "red")
	score, matched := sc.score(Record{"name": "redis-pod"}, []string{"name"})

	// phrase 5.0 + term 1.0 + prefix 1.0, no boundary bonus: "red" is
	// followed by a word character.
	assert.InDelta(t, 7.0*3.0/22.5, score, 1e-9)
	assert.Equal(t, []string{"name"}, matched)
}

func TestScoreClampedToOne(t *testing.T) {
	cfg := config.DefaultScoring()
	cfg.NormalizationBase = 0.1
	sc := newScorer(cfg, []string{"web"}, "web")

	score, _ := sc.score(Record{"name": "web"}, []string{"name"})
	assert.Equal(t, 1.0, score)
}

func TestScoreUnmatchedRecordIsZero(t *testing.T) {
	sc := newScorer(config.DefaultScoring(), []string{"nginx"}, "nginx")
	score, matched := sc.score(Record{"name": "redis"}, []string{"name"})
	assert.Zero(t, score)
	assert.Empty(t, matched)
}

func TestWeightForMatchesFinalSegment(t *testing.T) {
	sc := newScorer(config.DefaultScoring(), []string{"x"}, "x")
	assert.Equal(t, 3.0, sc.weightFor("metadata.name"))
	assert.Equal(t, 3.0, sc.weightFor("name"))
	assert.Equal(t, 2.5, sc.weightFor("status"))
	assert.Equal(t, 1.0, sc.weightFor("spec.nodeName"))
}

func TestFieldWeightOverrideChangesRanking(t *testing.T) {
	cfg := config.Default().Search
	cfg.Scoring.FieldWeights = map[string]float64{"namespace": 3.0, "name": 1.0}

	s := NewStore("pods", cfg, nil)
	s.Build([]Record{
		{"name": "monitoring-agent", "namespace": "default"},
		{"name": "api-server", "namespace": "monitoring"},
	}, []string{"name", "namespace"})

	results := s.Search("monitoring", 0)
	require.Len(t, results, 2)
	// with namespace outweighing name, the namespace hit ranks first
	assert.Equal(t, 1, results[0].RowIndex)
}

func TestPhraseBonusAppliesPerField(t *testing.T) {
	sc := newScorer(config.DefaultScoring(), []string{"crash", "loop"}, "crash loop")
	score, matched := sc.score(Record{
		"message": "container is in a crash loop",
		"reason":  "CrashLoopBackOff",
	}, []string{"message", "reason"})

	assert.Greater(t, score, 0.0)
	assert.Equal(t, []string{"message", "reason"}, matched)
}
