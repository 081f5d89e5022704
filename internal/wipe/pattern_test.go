package wipe

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanForSinglePass(t *testing.T) {
	plan := PlanFor(MethodSinglePass)
	require.Len(t, plan, 1)
	assert.Equal(t, []byte{0x00}, plan[0].Bytes)
	assert.False(t, plan[0].Random)
}

func TestPlanForThreePass(t *testing.T) {
	for _, method := range []Method{MethodThreePass, MethodDoD522022M} {
		plan := PlanFor(method)
		require.Len(t, plan, 3, "метод %s", method)
		assert.Equal(t, []byte{0x00}, plan[0].Bytes)
		assert.Equal(t, []byte{0xFF}, plan[1].Bytes)
		assert.True(t, plan[2].Random)
	}
}

func TestPlanForDelegatedMethodsEmpty(t *testing.T) {
	for _, method := range []Method{MethodCryptoErase, MethodAtaSanitize, MethodNvmeFormat} {
		assert.Empty(t, PlanFor(method), "метод %s", method)
	}
}

func TestGutmannPlanCanonical(t *testing.T) {
	plan := PlanFor(MethodGutmann)
	require.Len(t, plan, 35)

	random := 0
	for _, p := range plan {
		if p.Random {
			random++
		}
	}
	assert.Equal(t, 8, random, "4 случайных прохода в начале и 4 в конце")

	// Первые и последние 4 прохода случайные
	for i := 0; i < 4; i++ {
		assert.True(t, plan[i].Random)
		assert.True(t, plan[34-i].Random)
	}

	// Опорные точки фиксированной части таблицы
	assert.Equal(t, []byte{0x55}, plan[4].Bytes)
	assert.Equal(t, []byte{0xAA}, plan[5].Bytes)
	assert.Equal(t, []byte{0x92, 0x49, 0x24}, plan[6].Bytes)
	assert.Equal(t, []byte{0x00}, plan[9].Bytes)
	assert.Equal(t, []byte{0xFF}, plan[24].Bytes)
	assert.Equal(t, []byte{0x6D, 0xB6, 0xDB}, plan[28].Bytes)
	assert.Equal(t, []byte{0xDB, 0x6D, 0xB6}, plan[30].Bytes)
}

func TestPlanForDeterministic(t *testing.T) {
	first := PlanFor(MethodGutmann)
	second := PlanFor(MethodGutmann)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Random, second[i].Random)
		assert.Equal(t, first[i].Bytes, second[i].Bytes)
	}
}

func TestFillBufferSingleByte(t *testing.T) {
	buf := make([]byte, 1024)
	fillBuffer(buf, []byte{0xFF})
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 1024), buf)
}

func TestFillBufferMultiByteTiling(t *testing.T) {
	buf := make([]byte, 10)
	fillBuffer(buf, []byte{0x92, 0x49, 0x24})
	assert.Equal(t, []byte{0x92, 0x49, 0x24, 0x92, 0x49, 0x24, 0x92, 0x49, 0x24, 0x92}, buf)
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("nist_800_88")
	require.NoError(t, err)
	assert.Equal(t, MethodNIST80088, m)

	_, err = ParseMethod("unknown_method")
	assert.Error(t, err)
}

func TestParseMethodLegacyAliases(t *testing.T) {
	cases := map[string]Method{
		"shred":               MethodThreePass,
		"dd_zero":             MethodSinglePass,
		"hdparm_secure_erase": MethodAtaSanitize,
	}
	for alias, want := range cases {
		m, err := ParseMethod(alias)
		require.NoError(t, err, "алиас %s", alias)
		assert.Equal(t, want, m)
	}
}

func TestPatternString(t *testing.T) {
	assert.Equal(t, "zero", patternZero.String())
	assert.Equal(t, "0xFF", patternOnes.String())
	assert.Equal(t, "random", patternRandom.String())
	assert.Equal(t, "fixed", Pattern{Bytes: []byte{0x92, 0x49, 0x24}}.String())
}
