package service

import (
	"context"
	"encoding/json"
	"strings"

	"prepsmart-go/internal/config"
	"prepsmart-go/internal/model"
	"prepsmart-go/internal/prompt"
	"prepsmart-go/internal/repository"
	"prepsmart-go/pkg/llm"
	"prepsmart-go/pkg/log"
)

// planContextChunks 是学习计划使用的广上下文分块数上限。
// 计划需要全局视角而非局部召回，直接取最早的一批分块。
const planContextChunks = 40

// PrepService 接口定义了备考内容生成相关的业务操作。
type PrepService interface {
	// AnswerQuestion 按分值生成某道题的严格作答。
	AnswerQuestion(ctx context.Context, subjectID, question string, marks int) (string, error)
	// UnitPrep 生成单元总结。同一 (学科, 单元) 的结果落库缓存，
	// 第二个返回值表示本次是否命中缓存。
	UnitPrep(ctx context.Context, subjectID, unit string) (string, bool, error)
	// StreamExamPaper 流式生成一套试卷，增量逐条写入 writer。
	StreamExamPaper(ctx context.Context, subjectID string, examType prompt.ExamType, writer llm.MessageWriter) error
	// GeneratePlan 生成结构化学习计划，返回模型输出的 JSON。
	GeneratePlan(ctx context.Context, subjectID string, directives prompt.PlanDirectives) (json.RawMessage, error)
	// LastHourRevision 基于学科全部文档全文生成考前速记。
	LastHourRevision(ctx context.Context, subjectID string) (string, error)
	// ImportantQuestions 基于学科全部文档全文生成押题列表。
	ImportantQuestions(ctx context.Context, subjectID string) (string, error)
}

type prepService struct {
	searchService SearchService
	prepRepo      repository.PrepRepository
	chunkRepo     repository.ChunkRepository
	docRepo       repository.DocumentRepository
	llmClient     llm.Client
	retrieval     config.RetrievalConfig
}

// NewPrepService 创建一个新的 PrepService 实例。
func NewPrepService(searchService SearchService, prepRepo repository.PrepRepository, chunkRepo repository.ChunkRepository, docRepo repository.DocumentRepository, llmClient llm.Client, retrieval config.RetrievalConfig) PrepService {
	return &prepService{
		searchService: searchService,
		prepRepo:      prepRepo,
		chunkRepo:     chunkRepo,
		docRepo:       docRepo,
		llmClient:     llmClient,
		retrieval:     retrieval,
	}
}

// retrieveContext 按备考检索参数召回并拼接上下文，召回为空时报 ErrNoContent。
func (s *prepService) retrieveContext(ctx context.Context, subjectID, queryText string, topK int) (string, error) {
	chunks, err := s.searchService.Retrieve(ctx, subjectID, queryText, s.retrieval.PrepThreshold, topK)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", ErrNoContent
	}
	return prompt.BuildContext(Contents(chunks), s.retrieval.MaxContextChars), nil
}

func (s *prepService) AnswerQuestion(ctx context.Context, subjectID, question string, marks int) (string, error) {
	contextText, err := s.retrieveContext(ctx, subjectID, question, s.retrieval.PrepTopK)
	if err != nil {
		return "", err
	}

	gen := &llm.GenerationParams{Temperature: 0.3, TopP: 0.9, NumPredict: 1000}
	return s.llmClient.Generate(ctx, prompt.QuestionAnswer(contextText, question, marks), gen)
}

func (s *prepService) UnitPrep(ctx context.Context, subjectID, unit string) (string, bool, error) {
	// 缓存命中直接返回，不触发检索与生成
	if existing, err := s.prepRepo.FindBySubjectAndUnit(subjectID, unit); err == nil && existing.Content != "" {
		log.Infof("[PrepService] 单元总结命中缓存, subject: %s, unit: %s", subjectID, unit)
		return existing.Content, true, nil
	}

	contextText, err := s.retrieveContext(ctx, subjectID, prompt.UnitQueryText(unit), s.retrieval.PrepTopK)
	if err != nil {
		return "", false, err
	}

	gen := &llm.GenerationParams{Temperature: 0.3, TopP: 0.9, NumPredict: 1000}
	content, err := s.llmClient.Generate(ctx, prompt.UnitSummary(contextText, unit), gen)
	if err != nil {
		return "", false, err
	}

	// 缓存写入是尽力而为，失败不影响本次生成结果
	prep := &model.Prep{SubjectID: subjectID, Unit: unit, Content: content}
	if err := s.prepRepo.Create(prep); err != nil {
		log.Warnf("[PrepService] 单元总结缓存写入失败, subject: %s, unit: %s: %v", subjectID, unit, err)
	}
	return content, false, nil
}

func (s *prepService) StreamExamPaper(ctx context.Context, subjectID string, examType prompt.ExamType, writer llm.MessageWriter) error {
	contextText, err := s.retrieveContext(ctx, subjectID, prompt.PaperQueryText(examType), s.retrieval.PaperTopK)
	if err != nil {
		return err
	}

	gen := &llm.GenerationParams{Temperature: 0.3, NumPredict: 800}
	return s.llmClient.StreamGenerate(ctx, prompt.ExamPaper(examType, contextText), gen, writer)
}

func (s *prepService) GeneratePlan(ctx context.Context, subjectID string, directives prompt.PlanDirectives) (json.RawMessage, error) {
	// 学习计划不做语义召回，直接取最早的一批分块拼出广上下文
	chunks, err := s.chunkRepo.ListBySubjectPage(subjectID, 0, planContextChunks)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrNoContent
	}

	contents := make([]string, 0, len(chunks))
	for _, c := range chunks {
		contents = append(contents, c.Content)
	}
	contextText := prompt.BuildContext(contents, s.retrieval.MaxContextChars)

	p, err := prompt.StudyPlan(directives, contextText)
	if err != nil {
		return nil, err
	}

	gen := &llm.GenerationParams{Temperature: 0.15, NumPredict: 3000}
	return s.llmClient.GenerateJSON(ctx, p, gen)
}

// combinedFullText 拼接学科下所有文档的归一化全文。
func (s *prepService) combinedFullText(subjectID string) (string, error) {
	docs, err := s.docRepo.FindBySubjectID(subjectID)
	if err != nil {
		return "", err
	}
	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.FullText != "" {
			texts = append(texts, d.FullText)
		}
	}
	combined := strings.Join(texts, "\n")
	if combined == "" {
		return "", ErrNoContent
	}
	return prompt.BuildContext([]string{combined}, s.retrieval.MaxContextChars), nil
}

func (s *prepService) LastHourRevision(ctx context.Context, subjectID string) (string, error) {
	combined, err := s.combinedFullText(subjectID)
	if err != nil {
		return "", err
	}
	gen := &llm.GenerationParams{Temperature: 0.2, NumPredict: 400}
	return s.llmClient.Generate(ctx, prompt.LastHourRevision(combined), gen)
}

func (s *prepService) ImportantQuestions(ctx context.Context, subjectID string) (string, error) {
	combined, err := s.combinedFullText(subjectID)
	if err != nil {
		return "", err
	}
	gen := &llm.GenerationParams{Temperature: 0.2, NumPredict: 300}
	return s.llmClient.Generate(ctx, prompt.ImportantQuestions(combined), gen)
}
