package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_StripsNulBytes(t *testing.T) {
	assert.Equal(t, "abc", Normalize("a\x00b\x00c"))
}

func TestNormalize_UnifiesLineEndings(t *testing.T) {
	assert.Equal(t, "a\nb\nc", Normalize("a\r\nb\rc"))
}

func TestNormalize_CollapsesBlankRuns(t *testing.T) {
	assert.Equal(t, "a\n\nb", Normalize("a\n\n\n\n\nb"))
	// 两个换行（一个段落边界）保持不变
	assert.Equal(t, "a\n\nb", Normalize("a\n\nb"))
}

func TestNormalize_TrimsEdges(t *testing.T) {
	assert.Equal(t, "body", Normalize("  \n\nbody\n\n  "))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"a\r\n\r\n\r\nb\x00c",
		"  多行\n\n\n中文 文本\r\n结束  ",
		"",
		"plain",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}
