// Package es 提供了与 Elasticsearch 向量索引交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"prepsmart-go/internal/config"
	"prepsmart-go/internal/model"
	"prepsmart-go/pkg/log"
)

// Index 封装了对单个分块向量索引的操作。
type Index struct {
	client *elasticsearch.Client
	name   string
}

// Hit 是一次相似度搜索的单条命中。
type Hit struct {
	Chunk model.EsChunk
	Score float64
}

// InitES 初始化 Elasticsearch 客户端，并确保索引存在。
// dims 由 Embedding 模型的维度决定，索引一旦创建维度即固定。
func InitES(esCfg config.ElasticsearchConfig, dims int) (*Index, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	ix := &Index{client: client, name: esCfg.IndexName}
	if err := ix.createIfNotExists(dims); err != nil {
		return nil, err
	}
	return ix, nil
}

// createIfNotExists 检查索引是否存在，不存在则按固定 mapping 创建。
func (ix *Index) createIfNotExists(dims int) error {
	res, err := ix.client.Indices.Exists([]string{ix.name})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", ix.name)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", ix.name, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	// 向量维度与 Embedding 模型对齐，相似度使用 cosine
	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"vector_id": { "type": "keyword" },
				"subject_id": { "type": "keyword" },
				"document_id": { "type": "keyword" },
				"chunk_index": { "type": "integer" },
				"content": { "type": "text" },
				"vector": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				},
				"model_version": { "type": "keyword" }
			}
		}
	}`, dims)

	res, err = ix.client.Indices.Create(
		ix.name,
		ix.client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", ix.name, err)
		return err
	}
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", ix.name, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", ix.name)
	return nil
}

// IndexChunk 将单个分块向量索引到 Elasticsearch。
func (ix *Index) IndexChunk(ctx context.Context, doc model.EsChunk) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      ix.name,
		DocumentID: doc.VectorID,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引分块到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index chunk")
	}
	return nil
}

// Search 执行学科范围内的 kNN 相似度搜索。
// minScore 作为相似度阈值，低于它的命中被丢弃；结果按得分降序。
func (ix *Index) Search(ctx context.Context, vector []float32, subjectID string, minScore float64, topK int) ([]Hit, error) {
	query := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   vector,
			"k":              topK,
			"num_candidates": topK * 10,
			"filter": map[string]interface{}{
				"term": map[string]interface{}{"subject_id": subjectID},
			},
		},
		"min_score": minScore,
		"size":      topK,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := ix.client.Search(
		ix.client.Search.WithContext(ctx),
		ix.client.Search.WithIndex(ix.name),
		ix.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.String())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.EsChunk `json:"_source"`
				Score  float64       `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	hits := make([]Hit, 0, len(esResponse.Hits.Hits))
	for _, h := range esResponse.Hits.Hits {
		hits = append(hits, Hit{Chunk: h.Source, Score: h.Score})
	}
	return hits, nil
}

// DeleteByDocumentID 删除某文档的全部向量（重新处理前的幂等清理）。
func (ix *Index) DeleteByDocumentID(ctx context.Context, documentID string) error {
	query := fmt.Sprintf(`{"query":{"term":{"document_id":"%s"}}}`, documentID)
	res, err := ix.client.DeleteByQuery(
		[]string{ix.name},
		strings.NewReader(query),
		ix.client.DeleteByQuery.WithContext(ctx),
		ix.client.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("按文档删除向量出错: %s", res.String())
		return errors.New("failed to delete chunks by document")
	}
	return nil
}
