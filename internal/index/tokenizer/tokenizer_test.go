package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTokensAndPrefixes(t *testing.T) {
	terms := Extract("nginx-pod")
	assert.ElementsMatch(t, []string{"nginx", "ngi", "ngin", "pod"}, terms)
}

func TestExtractLowercases(t *testing.T) {
	assert.ElementsMatch(t, Extract("NGINX"), Extract("nginx"))
}

func TestExtractShortTokensHaveNoPrefixes(t *testing.T) {
	assert.ElementsMatch(t, []string{"ab", "c"}, Extract("ab c"))
}

func TestExtractDeduplicates(t *testing.T) {
	terms := Extract("pod pod pods")
	assert.ElementsMatch(t, []string{"pod", "pods"}, terms)
}

func TestExtractUnderscoreIsWordCharacter(t *testing.T) {
	terms := Extract("my_app")
	assert.Contains(t, terms, "my_app")
	assert.Contains(t, terms, "my_")
	assert.NotContains(t, terms, "my")
}

func TestExtractSplitsOnPunctuation(t *testing.T) {
	terms := Extract("kube-system/coredns")
	assert.Contains(t, terms, "kube")
	assert.Contains(t, terms, "system")
	assert.Contains(t, terms, "coredns")
}

func TestExtractEmpty(t *testing.T) {
	assert.Empty(t, Extract(""))
	assert.Empty(t, Extract("--- ///"))
}

func BenchmarkExtract(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Extract("nginx-deployment-7d46f9c5b8-xk2lp Running kube-system")
	}
}
