package handler

import (
	"errors"
	"net/http"

	"prepsmart-go/internal/prompt"
	"prepsmart-go/internal/repository"
	"prepsmart-go/internal/service"
	"prepsmart-go/pkg/llm"
	"prepsmart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ExamHandler 负责备考内容生成相关的请求。
type ExamHandler struct {
	prepService   service.PrepService
	searchService service.SearchService
}

// NewExamHandler 创建一个新的 ExamHandler 实例。
func NewExamHandler(prepService service.PrepService, searchService service.SearchService) *ExamHandler {
	return &ExamHandler{
		prepService:   prepService,
		searchService: searchService,
	}
}

// resolveSubject 解析请求的生效学科并统一处理错误响应。
// 返回空字符串表示已写入错误响应。
func (h *ExamHandler) resolveSubject(c *gin.Context, explicitID string) string {
	subject, err := h.searchService.ResolveSubject(explicitID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubjectRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "subjectId is required"})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "subject not found"})
		default:
			log.Errorf("[ExamHandler] 解析学科失败: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch subject"})
		}
		return ""
	}
	return subject.ID
}

// writeGenerationError 把生成层错误映射为统一的 HTTP 响应。
func writeGenerationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoContent):
		c.JSON(http.StatusNotFound, gin.H{"error": "no syllabus content available"})
	case errors.Is(err, llm.ErrMalformedOutput):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "model generated invalid output structure"})
	default:
		log.Errorf("[ExamHandler] 生成失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generation failed"})
	}
}

// Question 按分值生成一道题的作答。
func (h *ExamHandler) Question(c *gin.Context) {
	var req struct {
		SubjectID string `json:"subjectId"`
		Question  string `json:"question" binding:"required"`
		Marks     int    `json:"marks" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question and positive marks are required"})
		return
	}

	subjectID := h.resolveSubject(c, req.SubjectID)
	if subjectID == "" {
		return
	}

	answer, err := h.prepService.AnswerQuestion(c.Request.Context(), subjectID, req.Question, req.Marks)
	if err != nil {
		writeGenerationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// Unit 生成（或返回缓存的）单元总结。
func (h *ExamHandler) Unit(c *gin.Context) {
	var req struct {
		SubjectID string `json:"subjectId"`
		Unit      string `json:"unit" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unit is required"})
		return
	}

	subjectID := h.resolveSubject(c, req.SubjectID)
	if subjectID == "" {
		return
	}

	content, cached, err := h.prepService.UnitPrep(c.Request.Context(), subjectID, req.Unit)
	if err != nil {
		writeGenerationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prep": content, "cached": cached})
}

// Paper 流式生成一套试卷，以 chunked 纯文本下发。
func (h *ExamHandler) Paper(c *gin.Context) {
	var req struct {
		SubjectID string `json:"subjectId"`
		ExamType  string `json:"examType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "examType is required"})
		return
	}

	examType, err := prompt.ParseExamType(req.ExamType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subjectID := h.resolveSubject(c, req.SubjectID)
	if subjectID == "" {
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Transfer-Encoding", "chunked")
	writer := &chunkedWriter{c: c}

	if err := h.prepService.StreamExamPaper(c.Request.Context(), subjectID, examType, writer); err != nil {
		// 流开始前的失败仍可返回 JSON 错误
		if !writer.started {
			writeGenerationError(c, err)
			return
		}
		log.Errorf("[ExamHandler] 试卷流中断: %v", err)
	}
}

// Plan 生成结构化学习计划，原样透传模型输出的 JSON。
func (h *ExamHandler) Plan(c *gin.Context) {
	var req struct {
		SubjectID    string `json:"subjectId"`
		Urgency      string `json:"urgency" binding:"required"`
		TargetGrade  string `json:"targetGrade" binding:"required"`
		Style        string `json:"explanationStyle" binding:"required"`
		AnswerLength string `json:"answerLength" binding:"required"`
		TargetUnit   int    `json:"targetUnit" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "all plan parameters are required"})
		return
	}

	directives := prompt.PlanDirectives{
		Urgency:      prompt.Urgency(req.Urgency),
		TargetGrade:  prompt.TargetGrade(req.TargetGrade),
		Style:        prompt.Style(req.Style),
		AnswerLength: prompt.AnswerLength(req.AnswerLength),
		TargetUnit:   req.TargetUnit,
	}

	// 未知参数取值是调用方错误，先于检索与生成校验
	if _, err := directives.Block(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subjectID := h.resolveSubject(c, req.SubjectID)
	if subjectID == "" {
		return
	}

	plan, err := h.prepService.GeneratePlan(c.Request.Context(), subjectID, directives)
	if err != nil {
		writeGenerationError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", plan)
}

// LastHour 生成考前最后一小时速记。
func (h *ExamHandler) LastHour(c *gin.Context) {
	var req struct {
		SubjectID string `json:"subjectId"`
	}
	_ = c.ShouldBindJSON(&req)

	subjectID := h.resolveSubject(c, req.SubjectID)
	if subjectID == "" {
		return
	}

	revision, err := h.prepService.LastHourRevision(c.Request.Context(), subjectID)
	if err != nil {
		writeGenerationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revision": revision})
}

// ImportantQuestions 生成押题列表。
func (h *ExamHandler) ImportantQuestions(c *gin.Context) {
	var req struct {
		SubjectID string `json:"subjectId"`
	}
	_ = c.ShouldBindJSON(&req)

	subjectID := h.resolveSubject(c, req.SubjectID)
	if subjectID == "" {
		return
	}

	questions, err := h.prepService.ImportantQuestions(c.Request.Context(), subjectID)
	if err != nil {
		writeGenerationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// chunkedWriter 把流式增量写入 HTTP 响应并立即 flush，
// 满足 llm.MessageWriter 接口。
type chunkedWriter struct {
	c       *gin.Context
	started bool
}

func (w *chunkedWriter) WriteMessage(_ int, data []byte) error {
	w.started = true
	if _, err := w.c.Writer.Write(data); err != nil {
		return err
	}
	w.c.Writer.Flush()
	return nil
}
