// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"io"
	"net/http"

	"prepsmart-go/internal/extractor"
	"prepsmart-go/internal/repository"
	"prepsmart-go/internal/service"
	"prepsmart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes 限制单次上传大小 (50MB)。
const maxUploadBytes = 50 * 1024 * 1024

// DocumentHandler 负责处理所有与文档摄取相关的 API 请求。
type DocumentHandler struct {
	ingestService service.IngestService
	docRepo       repository.DocumentRepository
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(ingestService service.IngestService, docRepo repository.DocumentRepository) *DocumentHandler {
	return &DocumentHandler{
		ingestService: ingestService,
		docRepo:       docRepo,
	}
}

// Upload 处理文档上传请求，同步执行完整摄取流程。
func (h *DocumentHandler) Upload(c *gin.Context) {
	subjectID := c.PostForm("subjectId")
	if subjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subjectId is required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("[DocumentHandler] 打开上传文件失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Errorf("[DocumentHandler] 读取上传文件失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	doc, report, err := h.ingestService.IngestUpload(c.Request.Context(), subjectID, fileHeader.Filename, contentType, data)
	if err != nil {
		switch {
		case errors.Is(err, extractor.ErrUnsupportedFormat):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file format"})
		case errors.Is(err, extractor.ErrEmptyExtraction):
			c.JSON(http.StatusBadRequest, gin.H{"error": "no text could be extracted from the file"})
		default:
			log.Errorf("[DocumentHandler] 文档摄取失败: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ingestion failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"document": doc,
		"report":   report,
	})
}

// ListBySubject 返回某学科下的全部文档。
func (h *DocumentHandler) ListBySubject(c *gin.Context) {
	subjectID := c.Query("subjectId")
	if subjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subjectId is required"})
		return
	}

	docs, err := h.docRepo.FindBySubjectID(subjectID)
	if err != nil {
		log.Errorf("[DocumentHandler] 查询文档列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// Reprocess 把文档重新处理任务投递到队列，立即返回 202。
func (h *DocumentHandler) Reprocess(c *gin.Context) {
	documentID := c.Param("id")

	err := h.ingestService.EnqueueReprocess(documentID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		case errors.Is(err, service.ErrNotReprocessable):
			c.JSON(http.StatusConflict, gin.H{"error": "document has no archived source"})
		default:
			log.Errorf("[DocumentHandler] 投递重新处理任务失败: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue reprocess"})
		}
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "documentId": documentID})
}
