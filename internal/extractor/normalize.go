package extractor

import (
	"regexp"
	"strings"
)

var multiNewline = regexp.MustCompile(`\n{3,}`)

// Normalize 对提取出的文本做统一清洗：去除 NUL 字节、统一换行为 \n、
// 把 3 个及以上的连续换行压缩为 2 个、去掉首尾空白。
// 该步骤是幂等的：对自身输出再执行一次不会产生任何变化。
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
