// Package pipeline 定义了文档重新处理的核心流程。
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"prepsmart-go/internal/chunker"
	"prepsmart-go/internal/extractor"
	"prepsmart-go/internal/model"
	"prepsmart-go/internal/repository"
	"prepsmart-go/internal/service"
	"prepsmart-go/pkg/embedding"
	"prepsmart-go/pkg/log"
	"prepsmart-go/pkg/tasks"
)

// Processor 消费重新处理任务：取回归档的原始字节，重新提取、
// 分块、向量化并重建索引。实现了 kafka.TaskProcessor。
type Processor struct {
	extractor       *extractor.Extractor
	embeddingClient embedding.Client
	index           service.VectorIndex
	store           service.ObjectStore
	chunkRepo       repository.ChunkRepository
	docRepo         repository.DocumentRepository
	embedModel      string
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	ext *extractor.Extractor,
	embeddingClient embedding.Client,
	index service.VectorIndex,
	store service.ObjectStore,
	chunkRepo repository.ChunkRepository,
	docRepo repository.DocumentRepository,
	embedModel string,
) *Processor {
	return &Processor{
		extractor:       ext,
		embeddingClient: embeddingClient,
		index:           index,
		store:           store,
		chunkRepo:       chunkRepo,
		docRepo:         docRepo,
		embedModel:      embedModel,
	}
}

// Process 是重新处理任务的主函数。任一分块失败即返回错误，
// 由消费端按重试策略重新投递。
func (p *Processor) Process(ctx context.Context, task tasks.ReprocessTask) error {
	log.Infof("[Processor] 开始重新处理文档, DocumentID: %s, Object: %s", task.DocumentID, task.ObjectKey)

	// 文档在任务排队期间可能已被删除，直接放弃
	if _, err := p.docRepo.FindByID(task.DocumentID); err != nil {
		log.Warnf("[Processor] 文档记录不存在, 放弃处理, DocumentID: %s: %v", task.DocumentID, err)
		return nil
	}

	// 1. 从 MinIO 取回归档的原始字节
	data, err := p.store.Fetch(ctx, task.ObjectKey)
	if err != nil {
		log.Errorf("[Processor] 从MinIO取回文件失败, Object: %s, Error: %v", task.ObjectKey, err)
		return fmt.Errorf("从 MinIO 取回文件失败: %w", err)
	}
	if len(data) == 0 {
		log.Warnf("[Processor] 归档对象 '%s' 内容为空, 处理中止", task.ObjectKey)
		return errors.New("归档对象内容为空")
	}
	log.Infof("[Processor] 步骤1: 取回成功, 大小: %d 字节", len(data))

	// 2. 重新提取文本
	text, err := p.extractor.Extract(data, "", task.Filename)
	if err != nil {
		log.Errorf("[Processor] 文本提取失败, DocumentID: %s, Error: %v", task.DocumentID, err)
		return fmt.Errorf("文本提取失败: %w", err)
	}
	log.Infof("[Processor] 步骤2: 文本提取成功, 长度: %d", len(text))

	// 3. 分块。段落密度过低时退回滑动窗口，避免重建后索引为空。
	pieces := chunker.Chunk(text)
	if len(pieces) == 0 {
		log.Warnf("[Processor] 未生成任何文本分块, 处理中止, DocumentID: %s", task.DocumentID)
		return errors.New("未生成任何文本分块")
	}
	log.Infof("[Processor] 步骤3: 分块完成, 共 %d 个", len(pieces))

	// 4. 清理旧数据（幂等：重复投递不会累计膨胀）
	if err := p.index.DeleteByDocumentID(ctx, task.DocumentID); err != nil {
		log.Warnf("[Processor] 清理旧向量失败, DocumentID: %s: %v", task.DocumentID, err)
	}
	if err := p.chunkRepo.DeleteByDocumentID(task.DocumentID); err != nil {
		return fmt.Errorf("清理旧分块记录失败: %w", err)
	}

	// 5. 逐块向量化、索引、落库。索引在前，保证已有行必有向量。
	for i, content := range pieces {
		vector, err := p.embeddingClient.CreateEmbedding(ctx, content)
		if err != nil {
			log.Errorf("[Processor] 分块 %d 向量化失败, Error: %v", i, err)
			return fmt.Errorf("块 %d 向量化失败: %w", i, err)
		}

		esDoc := model.EsChunk{
			VectorID:     fmt.Sprintf("%s-%d", task.DocumentID, i),
			SubjectID:    task.SubjectID,
			DocumentID:   task.DocumentID,
			ChunkIndex:   i,
			Content:      content,
			Vector:       vector,
			ModelVersion: p.embedModel,
		}
		if err := p.index.IndexChunk(ctx, esDoc); err != nil {
			log.Errorf("[Processor] 索引分块 %d 失败, Error: %v", i, err)
			return fmt.Errorf("索引块 %d 失败: %w", i, err)
		}

		chunk := &model.Chunk{
			SubjectID:  task.SubjectID,
			DocumentID: task.DocumentID,
			ChunkIndex: i,
			Content:    content,
		}
		if err := p.chunkRepo.Create(chunk); err != nil {
			return fmt.Errorf("保存块 %d 失败: %w", i, err)
		}
	}

	log.Infof("[Processor] 文档重新处理成功, DocumentID: %s, 分块数: %d", task.DocumentID, len(pieces))
	return nil
}
