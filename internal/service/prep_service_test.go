package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepsmart-go/internal/model"
	"prepsmart-go/internal/prompt"
	"prepsmart-go/pkg/llm"
)

// retrieveOK 返回固定召回内容的 fakeSearch。
func retrieveOK(contents ...string) *fakeSearch {
	return &fakeSearch{
		retrieveFn: func(_, _ string, _ float64, _ int) ([]model.RetrievedChunk, error) {
			out := make([]model.RetrievedChunk, 0, len(contents))
			for _, c := range contents {
				out = append(out, model.RetrievedChunk{Content: c, Score: 0.8})
			}
			return out, nil
		},
	}
}

func newTestPrep(search SearchService, llmClient llm.Client) (PrepService, *fakePrepRepo, *fakeChunkRepo, *fakeDocRepo) {
	prepRepo := &fakePrepRepo{}
	chunkRepo := &fakeChunkRepo{}
	docRepo := &fakeDocRepo{}
	svc := NewPrepService(search, prepRepo, chunkRepo, docRepo, llmClient, testRetrievalConfig())
	return svc, prepRepo, chunkRepo, docRepo
}

func TestAnswerQuestion_PromptCarriesContextAndMarks(t *testing.T) {
	client := &fakeLLM{generateFn: func(string) (string, error) { return "the answer", nil }}
	svc, _, _, _ := newTestPrep(retrieveOK("光合作用在叶绿体中进行", "反应式见第三章"), client)

	answer, err := svc.AnswerQuestion(context.Background(), "subj", "什么是光合作用", 5)
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	assert.Contains(t, client.lastPrompt, "光合作用在叶绿体中进行")
	assert.Contains(t, client.lastPrompt, "反应式见第三章")
	assert.Contains(t, client.lastPrompt, "5 marks")
	assert.Contains(t, client.lastPrompt, "什么是光合作用")
}

func TestAnswerQuestion_NoContentWhenRetrievalEmpty(t *testing.T) {
	search := &fakeSearch{
		retrieveFn: func(_, _ string, _ float64, _ int) ([]model.RetrievedChunk, error) {
			return nil, nil
		},
	}
	client := &fakeLLM{}
	svc, _, _, _ := newTestPrep(search, client)

	_, err := svc.AnswerQuestion(context.Background(), "subj", "q", 3)
	assert.ErrorIs(t, err, ErrNoContent)
	// 无上下文时不应触发生成
	assert.Empty(t, client.lastPrompt)
}

func TestAnswerQuestion_RetrievalErrorPropagates(t *testing.T) {
	boom := errors.New("index down")
	search := &fakeSearch{
		retrieveFn: func(_, _ string, _ float64, _ int) ([]model.RetrievedChunk, error) {
			return nil, boom
		},
	}
	svc, _, _, _ := newTestPrep(search, &fakeLLM{})

	_, err := svc.AnswerQuestion(context.Background(), "subj", "q", 3)
	assert.ErrorIs(t, err, boom)
}

func TestUnitPrep_GeneratesAndCaches(t *testing.T) {
	client := &fakeLLM{generateFn: func(string) (string, error) { return "unit summary", nil }}
	svc, prepRepo, _, _ := newTestPrep(retrieveOK("第四单元讲电磁感应"), client)

	content, cached, err := svc.UnitPrep(context.Background(), "subj", "Unit 4")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "unit summary", content)
	assert.Contains(t, client.lastPrompt, "Unit 4")

	require.Len(t, prepRepo.saved, 1)
	assert.Equal(t, "subj", prepRepo.saved[0].SubjectID)
	assert.Equal(t, "Unit 4", prepRepo.saved[0].Unit)
	assert.Equal(t, "unit summary", prepRepo.saved[0].Content)
}

func TestUnitPrep_CacheHitSkipsGeneration(t *testing.T) {
	client := &fakeLLM{}
	svc, prepRepo, _, _ := newTestPrep(retrieveOK("ignored"), client)
	prepRepo.saved = append(prepRepo.saved, &model.Prep{SubjectID: "subj", Unit: "Unit 4", Content: "cached summary"})

	content, cached, err := svc.UnitPrep(context.Background(), "subj", "Unit 4")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "cached summary", content)
	assert.Empty(t, client.lastPrompt)
	assert.Len(t, prepRepo.saved, 1)
}

func TestUnitPrep_CacheScopedBySubjectAndUnit(t *testing.T) {
	client := &fakeLLM{generateFn: func(string) (string, error) { return "fresh", nil }}
	svc, prepRepo, _, _ := newTestPrep(retrieveOK("context"), client)
	prepRepo.saved = append(prepRepo.saved, &model.Prep{SubjectID: "other", Unit: "Unit 4", Content: "other subject"})

	content, cached, err := svc.UnitPrep(context.Background(), "subj", "Unit 4")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "fresh", content)
}

func TestStreamExamPaper_WritesIncrementally(t *testing.T) {
	client := &fakeLLM{streamFn: func(_ string, writer llm.MessageWriter) error {
		for _, delta := range []string{"Section A", " Q1", " Q2"} {
			if err := writer.WriteMessage(1, []byte(delta)); err != nil {
				return err
			}
		}
		return nil
	}}
	svc, _, _, _ := newTestPrep(retrieveOK("历年题型覆盖三个单元"), client)

	var buf bytes.Buffer
	writer := writerFunc(func(data []byte) error {
		buf.Write(data)
		return nil
	})

	err := svc.StreamExamPaper(context.Background(), "subj", prompt.ExamSemester, writer)
	require.NoError(t, err)
	assert.Equal(t, "Section A Q1 Q2", buf.String())
	assert.Contains(t, client.lastPrompt, "历年题型覆盖三个单元")
}

func TestGeneratePlan_UsesBroadChunkContext(t *testing.T) {
	client := &fakeLLM{}
	svc, _, chunkRepo, _ := newTestPrep(&fakeSearch{}, client)
	chunkRepo.rows = append(chunkRepo.rows,
		&model.Chunk{SubjectID: "subj", Content: "大纲第一章"},
		&model.Chunk{SubjectID: "subj", Content: "大纲第二章"},
		&model.Chunk{SubjectID: "other", Content: "别的学科"},
	)

	plan, err := svc.GeneratePlan(context.Background(), "subj", validDirectives())
	require.NoError(t, err)
	assert.JSONEq(t, `{"hitlist":[]}`, string(plan))
	assert.Contains(t, client.lastPrompt, "大纲第一章")
	assert.Contains(t, client.lastPrompt, "大纲第二章")
	assert.NotContains(t, client.lastPrompt, "别的学科")
	assert.Contains(t, client.lastPrompt, "ONLY Unit 4")
}

func TestGeneratePlan_NoChunksIsNoContent(t *testing.T) {
	svc, _, _, _ := newTestPrep(&fakeSearch{}, &fakeLLM{})

	_, err := svc.GeneratePlan(context.Background(), "subj", validDirectives())
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestGeneratePlan_InvalidDirectiveFailsBeforeGeneration(t *testing.T) {
	client := &fakeLLM{}
	svc, _, chunkRepo, _ := newTestPrep(&fakeSearch{}, client)
	chunkRepo.rows = append(chunkRepo.rows, &model.Chunk{SubjectID: "subj", Content: "内容"})

	d := validDirectives()
	d.Urgency = "someday"
	_, err := svc.GeneratePlan(context.Background(), "subj", d)
	require.Error(t, err)
	assert.Empty(t, client.lastPrompt)
}

func TestLastHourRevision_JoinsAllDocumentFullText(t *testing.T) {
	client := &fakeLLM{generateFn: func(string) (string, error) { return "revision notes", nil }}
	svc, _, _, docRepo := newTestPrep(&fakeSearch{}, client)
	docRepo.byID = map[string]*model.Document{
		"d1": {ID: "d1", SubjectID: "subj", FullText: "第一份讲义全文"},
		"d2": {ID: "d2", SubjectID: "subj", FullText: "第二份讲义全文"},
		"d3": {ID: "d3", SubjectID: "subj", FullText: ""},
	}

	got, err := svc.LastHourRevision(context.Background(), "subj")
	require.NoError(t, err)
	assert.Equal(t, "revision notes", got)
	assert.Contains(t, client.lastPrompt, "第一份讲义全文")
	assert.Contains(t, client.lastPrompt, "第二份讲义全文")
}

func TestLastHourRevision_NoDocumentsIsNoContent(t *testing.T) {
	svc, _, _, _ := newTestPrep(&fakeSearch{}, &fakeLLM{})

	_, err := svc.LastHourRevision(context.Background(), "subj")
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestImportantQuestions_EmptyFullTextIsNoContent(t *testing.T) {
	svc, _, _, docRepo := newTestPrep(&fakeSearch{}, &fakeLLM{})
	docRepo.byID = map[string]*model.Document{
		"d1": {ID: "d1", SubjectID: "subj", FullText: ""},
	}

	_, err := svc.ImportantQuestions(context.Background(), "subj")
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestImportantQuestions_PromptBuiltFromFullText(t *testing.T) {
	client := &fakeLLM{generateFn: func(p string) (string, error) {
		if !strings.Contains(p, "期末复习重点") {
			return "", errors.New("missing material")
		}
		return "1. 题目一", nil
	}}
	svc, _, _, docRepo := newTestPrep(&fakeSearch{}, client)
	docRepo.byID = map[string]*model.Document{
		"d1": {ID: "d1", SubjectID: "subj", FullText: "期末复习重点"},
	}

	got, err := svc.ImportantQuestions(context.Background(), "subj")
	require.NoError(t, err)
	assert.Equal(t, "1. 题目一", got)
}

func validDirectives() prompt.PlanDirectives {
	return prompt.PlanDirectives{
		Urgency:      prompt.UrgencyCram,
		TargetGrade:  prompt.GradeTop,
		Style:        prompt.StyleSimplified,
		AnswerLength: prompt.LengthShort,
		TargetUnit:   4,
	}
}

// writerFunc 把函数适配成 llm.MessageWriter，便于断言流式输出。
type writerFunc func(data []byte) error

func (w writerFunc) WriteMessage(_ int, data []byte) error { return w(data) }
