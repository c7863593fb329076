package service

import (
	"context"
	"errors"
	"fmt"

	"prepsmart-go/internal/chunker"
	"prepsmart-go/internal/extractor"
	"prepsmart-go/internal/model"
	"prepsmart-go/internal/repository"
	"prepsmart-go/pkg/embedding"
	"prepsmart-go/pkg/kafka"
	"prepsmart-go/pkg/log"
	"prepsmart-go/pkg/tasks"

	"github.com/google/uuid"
)

// ErrNotReprocessable 表示文档没有归档原始字节，无法重新处理。
var ErrNotReprocessable = errors.New("document has no archived source")

// ObjectStore 抽象原始字节的归档与取回，便于在测试中替换 MinIO。
type ObjectStore interface {
	Archive(ctx context.Context, objectKey string, data []byte, contentType string) error
	Fetch(ctx context.Context, objectKey string) ([]byte, error)
}

// IngestService 接口定义了文档摄取相关的业务操作。
type IngestService interface {
	// IngestUpload 同步执行一次完整摄取：提取、归档、落库、分块、
	// 向量化、索引。单个分块失败只计数不中断。
	IngestUpload(ctx context.Context, subjectID, filename, contentType string, data []byte) (*model.Document, *model.IngestReport, error)
	// EnqueueReprocess 把文档重新处理任务投递到消息队列，立即返回。
	EnqueueReprocess(documentID string) error
}

type ingestService struct {
	docRepo    repository.DocumentRepository
	chunkRepo  repository.ChunkRepository
	extractor  *extractor.Extractor
	embedder   embedding.Client
	index      VectorIndex
	store      ObjectStore
	embedModel string
}

// NewIngestService 创建一个新的 IngestService 实例。
func NewIngestService(docRepo repository.DocumentRepository, chunkRepo repository.ChunkRepository, ext *extractor.Extractor, embedder embedding.Client, index VectorIndex, store ObjectStore, embedModel string) IngestService {
	return &ingestService{
		docRepo:    docRepo,
		chunkRepo:  chunkRepo,
		extractor:  ext,
		embedder:   embedder,
		index:      index,
		store:      store,
		embedModel: embedModel,
	}
}

func (s *ingestService) IngestUpload(ctx context.Context, subjectID, filename, contentType string, data []byte) (*model.Document, *model.IngestReport, error) {
	log.Infof("[IngestService] 开始摄取文档, subject: %s, file: %s, size: %d", subjectID, filename, len(data))

	text, err := s.extractor.Extract(data, contentType, filename)
	if err != nil {
		return nil, nil, err
	}

	docID := uuid.NewString()
	objectKey := fmt.Sprintf("%s/%s", docID, filename)

	// 归档原始字节是尽力而为：失败只丢掉重新处理能力，不影响本次摄取
	if err := s.store.Archive(ctx, objectKey, data, contentType); err != nil {
		log.Warnf("[IngestService] 原始文件归档失败, doc: %s: %v", docID, err)
		objectKey = ""
	}

	doc := &model.Document{
		ID:        docID,
		SubjectID: subjectID,
		Filename:  filename,
		FullText:  text,
		ObjectKey: objectKey,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, nil, fmt.Errorf("保存文档记录失败: %w", err)
	}

	report := s.indexChunks(ctx, doc, chunker.SplitParagraphs(text))
	log.Infof("[IngestService] 摄取完成, doc: %s, 分块 %d/%d", docID, report.ChunksSucceeded, report.ChunksTotal)
	return doc, report, nil
}

// indexChunks 逐块向量化并写入索引与数据库。
// 分块行只有在向量写入索引之后才落库，保证已有行必有向量。
func (s *ingestService) indexChunks(ctx context.Context, doc *model.Document, pieces []string) *model.IngestReport {
	report := &model.IngestReport{
		DocumentID:  doc.ID,
		ChunksTotal: len(pieces),
	}

	for i, content := range pieces {
		vector, err := s.embedder.CreateEmbedding(ctx, content)
		if err != nil {
			log.Warnf("[IngestService] 分块向量化失败并跳过, doc: %s, index: %d: %v", doc.ID, i, err)
			continue
		}

		esDoc := model.EsChunk{
			VectorID:     fmt.Sprintf("%s-%d", doc.ID, i),
			SubjectID:    doc.SubjectID,
			DocumentID:   doc.ID,
			ChunkIndex:   i,
			Content:      content,
			Vector:       vector,
			ModelVersion: s.embedModel,
		}
		if err := s.index.IndexChunk(ctx, esDoc); err != nil {
			log.Warnf("[IngestService] 分块写入索引失败并跳过, doc: %s, index: %d: %v", doc.ID, i, err)
			continue
		}

		chunk := &model.Chunk{
			SubjectID:  doc.SubjectID,
			DocumentID: doc.ID,
			ChunkIndex: i,
			Content:    content,
		}
		if err := s.chunkRepo.Create(chunk); err != nil {
			log.Warnf("[IngestService] 分块落库失败并跳过, doc: %s, index: %d: %v", doc.ID, i, err)
			continue
		}
		report.ChunksSucceeded++
	}
	return report
}

func (s *ingestService) EnqueueReprocess(documentID string) error {
	doc, err := s.docRepo.FindByID(documentID)
	if err != nil {
		return err
	}
	if doc.ObjectKey == "" {
		return ErrNotReprocessable
	}

	task := tasks.ReprocessTask{
		DocumentID: doc.ID,
		SubjectID:  doc.SubjectID,
		ObjectKey:  doc.ObjectKey,
		Filename:   doc.Filename,
	}
	if err := kafka.ProduceReprocessTask(task); err != nil {
		return fmt.Errorf("投递重新处理任务失败: %w", err)
	}
	log.Infof("[IngestService] 已投递重新处理任务, doc: %s", documentID)
	return nil
}
