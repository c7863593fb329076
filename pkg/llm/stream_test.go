package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamDecoder_WholeLines(t *testing.T) {
	d := newStreamDecoder(extractChatDelta)
	deltas := d.feed([]byte(`{"message":{"content":"Hello"},"done":false}` + "\n" + `{"message":{"content":" world"},"done":false}` + "\n"))
	assert.Equal(t, []string{"Hello", " world"}, deltas)

	_, ok := d.flush()
	assert.False(t, ok)
}

func TestStreamDecoder_RecordSplitAcrossReads(t *testing.T) {
	d := newStreamDecoder(extractChatDelta)

	// 一条记录被任意边界切成三段，只有补全到换行后才产出增量
	assert.Empty(t, d.feed([]byte(`{"message":{"con`)))
	assert.Empty(t, d.feed([]byte(`tent":"Based on the "},`)))
	deltas := d.feed([]byte(`"done":false}` + "\n"))
	require.Len(t, deltas, 1)
	assert.Equal(t, "Based on the ", deltas[0])
}

func TestStreamDecoder_SplitInsideMultibyteRune(t *testing.T) {
	d := newStreamDecoder(extractGenerateDelta)
	record := []byte(`{"response":"重点单元","done":false}` + "\n")

	// 在多字节字符中间切开
	cut := 15
	assert.Empty(t, d.feed(record[:cut]))
	deltas := d.feed(record[cut:])
	require.Len(t, deltas, 1)
	assert.Equal(t, "重点单元", deltas[0])
}

func TestStreamDecoder_MalformedLineIgnored(t *testing.T) {
	d := newStreamDecoder(extractChatDelta)
	deltas := d.feed([]byte("not json at all\n" + `{"message":{"content":"ok"}}` + "\n"))
	assert.Equal(t, []string{"ok"}, deltas)
}

func TestStreamDecoder_BlankLinesSkipped(t *testing.T) {
	d := newStreamDecoder(extractChatDelta)
	deltas := d.feed([]byte("\n  \n" + `{"message":{"content":"x"}}` + "\n\n"))
	assert.Equal(t, []string{"x"}, deltas)
}

func TestStreamDecoder_FlushParsesTrailingFragment(t *testing.T) {
	d := newStreamDecoder(extractGenerateDelta)
	// 最后一条记录没有换行结尾
	assert.Empty(t, d.feed([]byte(`{"response":"tail","done":true}`)))

	delta, ok := d.flush()
	require.True(t, ok)
	assert.Equal(t, "tail", delta)
}

func TestStreamDecoder_FlushDropsIncompleteRecord(t *testing.T) {
	d := newStreamDecoder(extractGenerateDelta)
	d.feed([]byte(`{"response":"trun`))

	_, ok := d.flush()
	assert.False(t, ok)
}

func TestStreamDecoder_ArbitrarySplitsReassemble(t *testing.T) {
	full := `{"message":{"content":"A"}}` + "\n" +
		`{"message":{"content":"B"}}` + "\n" +
		`{"message":{"content":"C"}}` + "\n"

	// 按每种分段宽度送入，结果必须与一次性送入一致
	for step := 1; step <= len(full); step++ {
		d := newStreamDecoder(extractChatDelta)
		var got []string
		for i := 0; i < len(full); i += step {
			end := i + step
			if end > len(full) {
				end = len(full)
			}
			got = append(got, d.feed([]byte(full[i:end]))...)
		}
		if delta, ok := d.flush(); ok {
			got = append(got, delta)
		}
		assert.Equal(t, []string{"A", "B", "C"}, got, "split width %d", step)
	}
}

func TestExtractDeltas(t *testing.T) {
	delta, ok := extractGenerateDelta([]byte(`{"response":"r","done":false}`))
	require.True(t, ok)
	assert.Equal(t, "r", delta)

	delta, ok = extractChatDelta([]byte(`{"message":{"role":"assistant","content":"c"},"done":false}`))
	require.True(t, ok)
	assert.Equal(t, "c", delta)

	// done 记录通常没有内容字段，解析成功但增量为空
	delta, ok = extractGenerateDelta([]byte(`{"done":true}`))
	require.True(t, ok)
	assert.Equal(t, "", delta)

	_, ok = extractChatDelta([]byte(`{`))
	assert.False(t, ok)
}
