package service

import (
	"context"
	"encoding/json"
	"errors"

	"prepsmart-go/internal/model"
	"prepsmart-go/pkg/es"
	"prepsmart-go/pkg/llm"
)

// 本文件提供各服务测试共用的轻量替身。

type fakeEmbedder struct {
	fn func(text string) ([]float32, error)
}

func (f *fakeEmbedder) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	if f.fn != nil {
		return f.fn(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeIndex struct {
	searchFn  func(subjectID string, minScore float64, topK int) ([]es.Hit, error)
	indexed   []model.EsChunk
	indexErr  error
	deletedBy []string
}

func (f *fakeIndex) IndexChunk(_ context.Context, doc model.EsChunk) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	f.indexed = append(f.indexed, doc)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, subjectID string, minScore float64, topK int) ([]es.Hit, error) {
	if f.searchFn != nil {
		return f.searchFn(subjectID, minScore, topK)
	}
	return nil, nil
}

func (f *fakeIndex) DeleteByDocumentID(_ context.Context, documentID string) error {
	f.deletedBy = append(f.deletedBy, documentID)
	return nil
}

type fakeSubjectRepo struct {
	byID   map[string]*model.Subject
	latest *model.Subject
	err    error
}

func (f *fakeSubjectRepo) Create(subject *model.Subject) error {
	if f.byID == nil {
		f.byID = map[string]*model.Subject{}
	}
	f.byID[subject.ID] = subject
	return f.err
}

func (f *fakeSubjectRepo) FindByID(id string) (*model.Subject, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return nil, errors.New("record not found")
}

func (f *fakeSubjectRepo) FindLatest() (*model.Subject, error) {
	if f.latest == nil {
		return nil, errors.New("record not found")
	}
	return f.latest, nil
}

func (f *fakeSubjectRepo) FindAll() ([]*model.Subject, error) {
	var out []*model.Subject
	for _, s := range f.byID {
		out = append(out, s)
	}
	return out, nil
}

type fakeChunkRepo struct {
	rows    []*model.Chunk
	listErr error
}

func (f *fakeChunkRepo) Create(chunk *model.Chunk) error {
	f.rows = append(f.rows, chunk)
	return nil
}

func (f *fakeChunkRepo) ListBySubjectPage(subjectID string, offset, limit int) ([]*model.Chunk, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var scoped []*model.Chunk
	for _, c := range f.rows {
		if c.SubjectID == subjectID {
			scoped = append(scoped, c)
		}
	}
	if offset >= len(scoped) {
		return nil, nil
	}
	end := offset + limit
	if end > len(scoped) {
		end = len(scoped)
	}
	return scoped[offset:end], nil
}

func (f *fakeChunkRepo) CountBySubject(subjectID string) (int64, error) {
	rows, _ := f.ListBySubjectPage(subjectID, 0, len(f.rows))
	return int64(len(rows)), nil
}

func (f *fakeChunkRepo) DeleteByDocumentID(documentID string) error {
	kept := f.rows[:0]
	for _, c := range f.rows {
		if c.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	f.rows = kept
	return nil
}

type fakeDocRepo struct {
	byID map[string]*model.Document
}

func (f *fakeDocRepo) Create(doc *model.Document) error {
	if f.byID == nil {
		f.byID = map[string]*model.Document{}
	}
	f.byID[doc.ID] = doc
	return nil
}

func (f *fakeDocRepo) FindByID(id string) (*model.Document, error) {
	if d, ok := f.byID[id]; ok {
		return d, nil
	}
	return nil, errors.New("record not found")
}

func (f *fakeDocRepo) FindBySubjectID(subjectID string) ([]*model.Document, error) {
	var out []*model.Document
	for _, d := range f.byID {
		if d.SubjectID == subjectID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocRepo) Delete(id string) error {
	delete(f.byID, id)
	return nil
}

type fakePrepRepo struct {
	saved []*model.Prep
}

func (f *fakePrepRepo) FindBySubjectAndUnit(subjectID, unit string) (*model.Prep, error) {
	for _, p := range f.saved {
		if p.SubjectID == subjectID && p.Unit == unit {
			return p, nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakePrepRepo) Create(prep *model.Prep) error {
	f.saved = append(f.saved, prep)
	return nil
}

type fakeStore struct {
	objects    map[string][]byte
	archiveErr error
}

func (f *fakeStore) Archive(_ context.Context, objectKey string, data []byte, _ string) error {
	if f.archiveErr != nil {
		return f.archiveErr
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[objectKey] = data
	return nil
}

func (f *fakeStore) Fetch(_ context.Context, objectKey string) ([]byte, error) {
	data, ok := f.objects[objectKey]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

type fakeLLM struct {
	generateFn func(prompt string) (string, error)
	jsonFn     func(prompt string) (json.RawMessage, error)
	streamFn   func(prompt string, writer llm.MessageWriter) error
	lastPrompt string
}

func (f *fakeLLM) StreamGenerate(_ context.Context, prompt string, _ *llm.GenerationParams, writer llm.MessageWriter) error {
	f.lastPrompt = prompt
	if f.streamFn != nil {
		return f.streamFn(prompt, writer)
	}
	return writer.WriteMessage(1, []byte("streamed"))
}

func (f *fakeLLM) StreamChat(_ context.Context, messages []llm.Message, _ *llm.GenerationParams, writer llm.MessageWriter) error {
	if len(messages) > 0 {
		f.lastPrompt = messages[0].Content
	}
	return writer.WriteMessage(1, []byte("streamed"))
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ *llm.GenerationParams) (string, error) {
	f.lastPrompt = prompt
	if f.generateFn != nil {
		return f.generateFn(prompt)
	}
	return "generated", nil
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, _ *llm.GenerationParams) (json.RawMessage, error) {
	f.lastPrompt = prompt
	if f.jsonFn != nil {
		return f.jsonFn(prompt)
	}
	return json.RawMessage(`{"hitlist":[]}`), nil
}

type fakeSearch struct {
	subject    *model.Subject
	subjectErr error
	retrieveFn func(subjectID, queryText string, threshold float64, topK int) ([]model.RetrievedChunk, error)
}

func (f *fakeSearch) ResolveSubject(string) (*model.Subject, error) {
	return f.subject, f.subjectErr
}

func (f *fakeSearch) Retrieve(_ context.Context, subjectID, queryText string, threshold float64, topK int) ([]model.RetrievedChunk, error) {
	if f.retrieveFn != nil {
		return f.retrieveFn(subjectID, queryText, threshold, topK)
	}
	return nil, nil
}
