// Package chunker 把归一化后的文本切分为适合向量化的分块。
// 两个策略都是输入的纯函数，重复调用结果一致。
package chunker

import (
	"strings"
	"unicode/utf8"
)

// MinChunkLen 是段落策略的噪声阈值，短于它的片段被丢弃。
const MinChunkLen = 50

// DefaultWindowSize 是滑动窗口策略的默认窗口大小（字符）。
const DefaultWindowSize = 1000

// DefaultOverlap 是相邻窗口的默认重叠大小（字符）。
const DefaultOverlap = 100

// SplitParagraphs 按双换行（段落边界）切分文本。
// 每个片段先 trim，再丢弃短于 MinChunkLen 的噪声片段。
func SplitParagraphs(text string) []string {
	var chunks []string
	for _, part := range strings.Split(text, "\n\n") {
		part = strings.TrimSpace(part)
		if utf8.RuneCountInString(part) < MinChunkLen {
			continue
		}
		chunks = append(chunks, part)
	}
	return chunks
}

// SlidingWindow 以固定窗口在字符序列上滑动切分，相邻窗口共享 overlap 个字符，
// 避免概念恰好被边界切断。窗口按 rune 计数，不会切碎多字节字符。
// 短于窗口的文本恰好产生一个分块；overlap 不合法时退化为不重叠切分。
func SlidingWindow(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultWindowSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	step := size - overlap
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// Chunk 是后台重新处理管道使用的组合策略：优先按段落切分，
// 段落密度过低（一个分块都切不出来）时退回滑动窗口。
// 同步上传路径只用段落策略，行为见 SplitParagraphs。
func Chunk(text string) []string {
	if chunks := SplitParagraphs(text); len(chunks) > 0 {
		return chunks
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return SlidingWindow(text, DefaultWindowSize, DefaultOverlap)
}
