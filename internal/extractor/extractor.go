// Package extractor 负责把上传的原始字节转换为归一化的纯文本。
package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"prepsmart-go/pkg/log"
	"prepsmart-go/pkg/tika"
)

// ErrUnsupportedFormat 表示没有任何处理器能识别该文件格式。
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrEmptyExtraction 表示提取结果为空或只有空白字符。
var ErrEmptyExtraction = errors.New("extracted text is empty")

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Extractor 按声明的 MIME 类型（缺失或通用时退回文件扩展名）分发到对应处理器。
type Extractor struct {
	tikaClient *tika.Client
}

// New 创建一个新的 Extractor 实例。
func New(tikaClient *tika.Client) *Extractor {
	return &Extractor{tikaClient: tikaClient}
}

// Extract 提取并归一化文本。支持 PDF、DOCX、图片（OCR）与纯文本/Markdown。
func (e *Extractor) Extract(data []byte, mimeHint, filenameHint string) (string, error) {
	kind, contentType := resolveKind(mimeHint, filenameHint)

	var raw string
	var err error
	switch kind {
	case kindPDF:
		raw, err = extractPDF(data)
	case kindDocx:
		raw, err = e.extractViaTika(data, docxMIME)
	case kindImage:
		raw, err = e.extractViaTika(data, contentType)
	case kindText:
		raw = string(data)
	default:
		return "", fmt.Errorf("%w: mime=%q, filename=%q", ErrUnsupportedFormat, mimeHint, filenameHint)
	}
	if err != nil {
		return "", err
	}

	normalized := Normalize(raw)
	if normalized == "" {
		return "", ErrEmptyExtraction
	}
	return normalized, nil
}

type sourceKind int

const (
	kindUnknown sourceKind = iota
	kindPDF
	kindDocx
	kindImage
	kindText
)

// resolveKind 先看声明的 MIME；缺失或为通用类型时按扩展名判断。
// 返回值附带用于 OCR 的具体 content type。
func resolveKind(mimeHint, filenameHint string) (sourceKind, string) {
	mt := strings.ToLower(strings.TrimSpace(mimeHint))
	if idx := strings.Index(mt, ";"); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}

	if mt != "" && mt != "application/octet-stream" {
		switch {
		case mt == "application/pdf":
			return kindPDF, mt
		case mt == docxMIME:
			return kindDocx, mt
		case strings.HasPrefix(mt, "image/"):
			return kindImage, mt
		case mt == "text/plain" || mt == "text/markdown":
			return kindText, mt
		}
		// 声明了不认识的 MIME 也再给扩展名一次机会
	}

	ext := strings.ToLower(filepath.Ext(filenameHint))
	switch ext {
	case ".pdf":
		return kindPDF, "application/pdf"
	case ".docx":
		return kindDocx, docxMIME
	case ".jpg", ".jpeg", ".png":
		contentType := mime.TypeByExtension(ext)
		if contentType == "" {
			contentType = "image/jpeg"
		}
		return kindImage, contentType
	case ".txt", ".md":
		return kindText, "text/plain"
	}
	return kindUnknown, ""
}

// extractPDF 按页逐行重建文本：同一基线上的文字串接在一起，
// 基线变化处插入换行，避免 PDF 排版把句子切碎。
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("解析 PDF 失败: %w", err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			// 单页失败不中止整份文档
			log.Warnf("[Extractor] PDF 第 %d 页文本提取失败: %v", pageNum, err)
			continue
		}
		for _, row := range rows {
			for _, word := range row.Content {
				sb.WriteString(word.S)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (e *Extractor) extractViaTika(data []byte, contentType string) (string, error) {
	text, err := e.tikaClient.ExtractText(bytes.NewReader(data), contentType)
	if err != nil {
		return "", fmt.Errorf("Tika 文本提取失败: %w", err)
	}
	return text, nil
}
