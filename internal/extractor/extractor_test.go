package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKind_MimeTakesPriority(t *testing.T) {
	kind, ct := resolveKind("application/pdf", "notes.txt")
	assert.Equal(t, kindPDF, kind)
	assert.Equal(t, "application/pdf", ct)
}

func TestResolveKind_StripsMimeParameters(t *testing.T) {
	kind, _ := resolveKind("text/plain; charset=utf-8", "")
	assert.Equal(t, kindText, kind)
}

func TestResolveKind_OctetStreamDefersToExtension(t *testing.T) {
	kind, ct := resolveKind("application/octet-stream", "syllabus.docx")
	assert.Equal(t, kindDocx, kind)
	assert.Equal(t, docxMIME, ct)
}

func TestResolveKind_ExtensionFallback(t *testing.T) {
	cases := map[string]sourceKind{
		"a.pdf":  kindPDF,
		"a.PDF":  kindPDF,
		"a.docx": kindDocx,
		"a.jpg":  kindImage,
		"a.jpeg": kindImage,
		"a.png":  kindImage,
		"a.txt":  kindText,
		"a.md":   kindText,
		"a.xyz":  kindUnknown,
	}
	for name, want := range cases {
		kind, _ := resolveKind("", name)
		assert.Equal(t, want, kind, "filename %s", name)
	}
}

func TestResolveKind_UnknownMimeRetriesExtension(t *testing.T) {
	kind, _ := resolveKind("application/x-mystery", "paper.pdf")
	assert.Equal(t, kindPDF, kind)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	e := New(nil)
	_, err := e.Extract([]byte("data"), "application/x-mystery", "file.xyz")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtract_PlainTextPassthrough(t *testing.T) {
	e := New(nil)
	text, err := e.Extract([]byte("line one\r\nline two\x00"), "text/plain", "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)
}

func TestExtract_EmptyAfterNormalize(t *testing.T) {
	e := New(nil)
	_, err := e.Extract([]byte("  \r\n \x00 "), "", "notes.txt")
	assert.ErrorIs(t, err, ErrEmptyExtraction)
}
