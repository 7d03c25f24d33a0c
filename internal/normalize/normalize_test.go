package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIdempotent(t *testing.T) {
	n := New("$")
	inputs := []string{
		"Hello\\nWorld",
		"café",
		"100%John",
		"plain text",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		twice := n.Normalize(once)
		assert.Equal(t, once, twice, "Normalize must be idempotent for %q", in)
	}
}

func TestNormalizeEscapes(t *testing.T) {
	n := New("")
	require.Equal(t, "a\nb\tc\rd\\e", n.Normalize(`a\nb\tc\rd\\e`))
	require.Equal(t, "€", n.Normalize(`€`))
	require.Equal(t, `\q`, n.Normalize(`\q`), "invalid escapes stay literal")
}

func TestCurrencyCorrection(t *testing.T) {
	n := New("$")
	out := n.Normalize("Total due: 100%Smith owes")
	assert.Contains(t, out, "100$Smith")
}

func TestTokenize(t *testing.T) {
	n := New("")
	toks := n.Tokenize("Hello, World! RAG combines retrieval.")
	var lowers []string
	for _, tok := range toks {
		lowers = append(lowers, tok.Lower)
	}
	assert.Equal(t, []string{"hello", "world", "rag", "combines", "retrieval"}, lowers)
}

func TestExtractEntityCandidates(t *testing.T) {
	n := New("")
	cands := n.ExtractEntityCandidates("The invoice was signed by John Smith on Tuesday and Jane Doe approved it.")
	assert.Contains(t, cands, "John Smith")
	assert.Contains(t, cands, "Jane Doe")
}

func TestExtractEntityCandidatesExcludesSentenceInitial(t *testing.T) {
	n := New("")
	cands := n.ExtractEntityCandidates("Revenue Growth was strong.")
	for _, c := range cands {
		assert.NotEqual(t, "Revenue Growth", c, "sentence-initial run must be excluded")
	}
}

func TestPhrases(t *testing.T) {
	n := New("")
	phrases := n.Phrases("retrieval augmented generation system", 2)
	assert.Equal(t, []string{"retrieval augmented", "augmented generation", "generation system"}, phrases)
}
