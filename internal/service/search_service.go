// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"

	"prepsmart-go/internal/config"
	"prepsmart-go/internal/model"
	"prepsmart-go/internal/repository"
	"prepsmart-go/pkg/embedding"
	"prepsmart-go/pkg/es"
	"prepsmart-go/pkg/log"
)

// ErrNoContent 表示该学科下没有任何可用的资料内容。
var ErrNoContent = errors.New("no syllabus content available")

// ErrSubjectRequired 表示未指定学科且配置禁止退回最近学科。
var ErrSubjectRequired = errors.New("subject id is required")

// VectorIndex 抽象向量索引操作，便于在测试中替换 Elasticsearch。
type VectorIndex interface {
	IndexChunk(ctx context.Context, doc model.EsChunk) error
	Search(ctx context.Context, vector []float32, subjectID string, minScore float64, topK int) ([]es.Hit, error)
	DeleteByDocumentID(ctx context.Context, documentID string) error
}

// SearchService 接口定义了学科解析与分块检索操作。
type SearchService interface {
	// ResolveSubject 解析生效学科：显式 ID 优先；ID 为空时按配置
	// 决定是否退回最近创建的学科。
	ResolveSubject(explicitID string) (*model.Subject, error)
	// Retrieve 执行语义检索。向量化失败、索引出错或命中为空时自动
	// 降级为数据库顺序扫描，降级结果的 Score 为 0。
	Retrieve(ctx context.Context, subjectID, queryText string, threshold float64, topK int) ([]model.RetrievedChunk, error)
}

type searchService struct {
	subjectRepo repository.SubjectRepository
	chunkRepo   repository.ChunkRepository
	embedder    embedding.Client
	index       VectorIndex
	retrieval   config.RetrievalConfig
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(subjectRepo repository.SubjectRepository, chunkRepo repository.ChunkRepository, embedder embedding.Client, index VectorIndex, retrieval config.RetrievalConfig) SearchService {
	return &searchService{
		subjectRepo: subjectRepo,
		chunkRepo:   chunkRepo,
		embedder:    embedder,
		index:       index,
		retrieval:   retrieval,
	}
}

func (s *searchService) ResolveSubject(explicitID string) (*model.Subject, error) {
	if explicitID != "" {
		return s.subjectRepo.FindByID(explicitID)
	}
	if !s.retrieval.AllowLatestSubjectFallback {
		return nil, ErrSubjectRequired
	}
	return s.subjectRepo.FindLatest()
}

func (s *searchService) Retrieve(ctx context.Context, subjectID, queryText string, threshold float64, topK int) ([]model.RetrievedChunk, error) {
	vector, err := s.embedder.CreateEmbedding(ctx, queryText)
	if err != nil {
		// 向量化失败不阻断请求，退回顺序扫描
		log.Warnf("[SearchService] 查询向量化失败，降级为顺序扫描: %v", err)
		return s.scanFallback(subjectID)
	}

	hits, err := s.index.Search(ctx, vector, subjectID, threshold, topK)
	if err != nil {
		log.Warnf("[SearchService] 向量检索失败，降级为顺序扫描: %v", err)
		return s.scanFallback(subjectID)
	}
	if len(hits) == 0 {
		return s.scanFallback(subjectID)
	}

	results := make([]model.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		results = append(results, model.RetrievedChunk{
			Content:    hit.Chunk.Content,
			Score:      hit.Score,
			DocumentID: hit.Chunk.DocumentID,
		})
	}
	return results, nil
}

// scanFallback 按创建顺序分页扫描该学科的分块，最多取 FallbackLimit 条。
// 页长不足 PageSize 说明已到末尾，提前停止。
func (s *searchService) scanFallback(subjectID string) ([]model.RetrievedChunk, error) {
	pageSize := s.retrieval.PageSize
	limit := s.retrieval.FallbackLimit

	var results []model.RetrievedChunk
	for offset := 0; len(results) < limit; offset += pageSize {
		chunks, err := s.chunkRepo.ListBySubjectPage(subjectID, offset, pageSize)
		if err != nil {
			return nil, err
		}
		for _, c := range chunks {
			if len(results) >= limit {
				break
			}
			results = append(results, model.RetrievedChunk{
				Content:    c.Content,
				DocumentID: c.DocumentID,
			})
		}
		if len(chunks) < pageSize {
			break
		}
	}
	return results, nil
}

// Contents 取出召回分块的文本，供上下文拼接使用。
func Contents(chunks []model.RetrievedChunk) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, c.Content)
	}
	return out
}
