package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"prepsmart-go/internal/extractor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIngest(embedder *fakeEmbedder, index *fakeIndex, store *fakeStore) (IngestService, *fakeDocRepo, *fakeChunkRepo) {
	docRepo := &fakeDocRepo{}
	chunkRepo := &fakeChunkRepo{}
	svc := NewIngestService(docRepo, chunkRepo, extractor.New(nil), embedder, index, store, "test-model")
	return svc, docRepo, chunkRepo
}

func paragraphs(n int) []byte {
	para := strings.Repeat("exam preparation material ", 4) // 超过段落阈值
	return []byte(strings.Repeat(para+"\n\n", n))
}

func TestIngestUpload_FullFlow(t *testing.T) {
	index := &fakeIndex{}
	store := &fakeStore{}
	svc, docRepo, chunkRepo := newTestIngest(&fakeEmbedder{}, index, store)

	doc, report, err := svc.IngestUpload(context.Background(), "subj", "notes.txt", "text/plain", paragraphs(3))
	require.NoError(t, err)

	assert.Equal(t, "subj", doc.SubjectID)
	assert.NotEmpty(t, doc.ID)
	assert.NotEmpty(t, doc.FullText)
	assert.NotEmpty(t, doc.ObjectKey)

	// 原始字节已归档
	assert.Len(t, store.objects, 1)
	// 文档与分块均已落库且写入索引
	require.Contains(t, docRepo.byID, doc.ID)
	assert.Equal(t, 3, report.ChunksTotal)
	assert.Equal(t, 3, report.ChunksSucceeded)
	assert.Len(t, chunkRepo.rows, 3)
	require.Len(t, index.indexed, 3)
	assert.Equal(t, "test-model", index.indexed[0].ModelVersion)
	assert.Equal(t, doc.ID, index.indexed[0].DocumentID)
}

func TestIngestUpload_SkipsFailedChunks(t *testing.T) {
	calls := 0
	embedder := &fakeEmbedder{fn: func(string) ([]float32, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("provider hiccup")
		}
		return []float32{0.1}, nil
	}}
	svc, _, chunkRepo := newTestIngest(embedder, &fakeIndex{}, &fakeStore{})

	_, report, err := svc.IngestUpload(context.Background(), "subj", "notes.txt", "text/plain", paragraphs(3))
	require.NoError(t, err)

	// 第二块失败被跳过，计数如实反映
	assert.Equal(t, 3, report.ChunksTotal)
	assert.Equal(t, 2, report.ChunksSucceeded)
	assert.Len(t, chunkRepo.rows, 2)
}

func TestIngestUpload_ShortTextZeroChunks(t *testing.T) {
	svc, docRepo, chunkRepo := newTestIngest(&fakeEmbedder{}, &fakeIndex{}, &fakeStore{})

	doc, report, err := svc.IngestUpload(context.Background(), "subj", "tiny.txt", "text/plain", []byte("too short to chunk"))
	require.NoError(t, err)

	// 文档记录保留（全文仍可用于考前速记），但没有任何分块
	assert.Contains(t, docRepo.byID, doc.ID)
	assert.Zero(t, report.ChunksTotal)
	assert.Zero(t, report.ChunksSucceeded)
	assert.Empty(t, chunkRepo.rows)
}

func TestIngestUpload_UnsupportedFormat(t *testing.T) {
	svc, docRepo, _ := newTestIngest(&fakeEmbedder{}, &fakeIndex{}, &fakeStore{})

	_, _, err := svc.IngestUpload(context.Background(), "subj", "weird.xyz", "application/x-mystery", []byte("data"))
	assert.ErrorIs(t, err, extractor.ErrUnsupportedFormat)
	assert.Empty(t, docRepo.byID)
}

func TestIngestUpload_ArchiveFailureIsNonFatal(t *testing.T) {
	store := &fakeStore{archiveErr: errors.New("minio down")}
	svc, docRepo, _ := newTestIngest(&fakeEmbedder{}, &fakeIndex{}, store)

	doc, report, err := svc.IngestUpload(context.Background(), "subj", "notes.txt", "text/plain", paragraphs(2))
	require.NoError(t, err)

	// 归档失败只丢掉重新处理能力
	assert.Empty(t, doc.ObjectKey)
	assert.Equal(t, 2, report.ChunksSucceeded)
	assert.Contains(t, docRepo.byID, doc.ID)
}

func TestEnqueueReprocess_RequiresArchivedSource(t *testing.T) {
	store := &fakeStore{archiveErr: errors.New("minio down")}
	svc, _, _ := newTestIngest(&fakeEmbedder{}, &fakeIndex{}, store)

	doc, _, err := svc.IngestUpload(context.Background(), "subj", "notes.txt", "text/plain", paragraphs(1))
	require.NoError(t, err)

	err = svc.EnqueueReprocess(doc.ID)
	assert.ErrorIs(t, err, ErrNotReprocessable)
}

func TestEnqueueReprocess_UnknownDocument(t *testing.T) {
	svc, _, _ := newTestIngest(&fakeEmbedder{}, &fakeIndex{}, &fakeStore{})
	err := svc.EnqueueReprocess("missing")
	assert.Error(t, err)
}
