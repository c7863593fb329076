package llm

import (
	"bytes"
	"encoding/json"
)

// extractFunc 从一条完整的 NDJSON 记录中取出文本增量。
// 解析失败返回 ok=false，该行被静默丢弃。
type extractFunc func(line []byte) (delta string, ok bool)

// streamDecoder 把任意边界切分的字节流重组为按行的文本增量。
// 模型服务返回的是换行分隔的 JSON 记录，但 HTTP 分块边界与记录边界无关，
// 甚至会落在多字节字符中间。这里按字节缓冲、只在完整行上解析，
// 天然保证不会截断 UTF-8 序列。
type streamDecoder struct {
	buf     []byte
	extract extractFunc
}

func newStreamDecoder(extract extractFunc) *streamDecoder {
	return &streamDecoder{extract: extract}
}

// feed 追加一段原始字节，返回其中所有完整行解析出的增量。
// 末尾未以换行结束的片段留在缓冲区，等待后续数据补全。
func (d *streamDecoder) feed(p []byte) []string {
	d.buf = append(d.buf, p...)

	var deltas []string
	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			break
		}
		line := d.buf[:idx]
		d.buf = d.buf[idx+1:]

		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if delta, ok := d.extract(line); ok {
			deltas = append(deltas, delta)
		}
	}
	return deltas
}

// flush 在流结束时对缓冲区残留的片段做最后一次解析。
// 残留片段本身可能就是不完整的记录，解析失败同样静默丢弃。
func (d *streamDecoder) flush() (string, bool) {
	line := bytes.TrimSpace(d.buf)
	d.buf = nil
	if len(line) == 0 {
		return "", false
	}
	return d.extract(line)
}

// extractGenerateDelta 对应 /api/generate 的流记录 {response, done}。
func extractGenerateDelta(line []byte) (string, bool) {
	var rec struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(line, &rec); err != nil {
		return "", false
	}
	return rec.Response, true
}

// extractChatDelta 对应 /api/chat 的流记录 {message:{content}, done}。
func extractChatDelta(line []byte) (string, bool) {
	var rec struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(line, &rec); err != nil {
		return "", false
	}
	return rec.Message.Content, true
}
