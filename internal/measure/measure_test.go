package measure

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestAndGet(t *testing.T) {
	s := NewStore()
	n := s.Ingest([]Row{
		{IDColumn: "DE1", "forgottenVoters": "45.2", "lowTrust": " 30 "},
		{IDColumn: "DE2", "forgottenVoters": "N/A"},
		{"forgottenVoters": "12"},
		{IDColumn: "  "},
	})
	require.Equal(t, 2, n)

	f, ok := s.Get("DE1", ForgottenVoters).Float()
	require.True(t, ok)
	assert.InDelta(t, 45.2, f, 1e-9)
	f, ok = s.Get("DE1", LowTrust).Float()
	require.True(t, ok)
	assert.Equal(t, 30.0, f)

	assert.Equal(t, Missing, s.Get("DE1", Pessimism), "缺列应为缺失")
	assert.Equal(t, Missing, s.Get("DE2", ForgottenVoters), "N/A 应为缺失而不是 0")
	assert.Equal(t, Missing, s.Get("XX", ForgottenVoters))
	assert.Equal(t, Missing, s.Get("DE1", Key("unknown")))
}

func TestIngestReplacesWholeRecord(t *testing.T) {
	s := NewStore()
	s.Ingest([]Row{{IDColumn: "FR1", "forgottenVoters": "50", "lowTrust": "60"}})
	s.Ingest([]Row{{IDColumn: "FR1", "forgottenVoters": "55"}})

	f, _ := s.Get("FR1", ForgottenVoters).Float()
	assert.Equal(t, 55.0, f)
	assert.False(t, s.Get("FR1", LowTrust).Valid(), "旧记录不应残留")
	assert.Equal(t, 1, s.Len())
}

func TestParse(t *testing.T) {
	assert.False(t, Parse("").Valid())
	assert.False(t, Parse("abc").Valid())
	assert.False(t, Parse("NaN").Valid())
	assert.False(t, Parse("Inf").Valid())
	assert.False(t, Of(math.NaN()).Valid())
	v := Parse("0")
	assert.True(t, v.Valid(), "0 是合法数值")
	assert.Equal(t, "0.0", v.String())
	assert.Equal(t, "no data", Missing.String())
}

func TestLabels(t *testing.T) {
	for _, k := range Keys {
		assert.True(t, Valid(k))
		assert.NotEqual(t, string(k), Label(k))
	}
	assert.False(t, Valid("nope"))
	assert.Equal(t, "nope", Label("nope"))
}
