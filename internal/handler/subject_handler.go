// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"prepsmart-go/internal/repository"
	"prepsmart-go/internal/service"
	"prepsmart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SubjectHandler 负责学科管理相关的请求。
type SubjectHandler struct {
	subjectService service.SubjectService
}

// NewSubjectHandler 创建一个新的 SubjectHandler 实例。
func NewSubjectHandler(subjectService service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjectService: subjectService}
}

// Create 处理创建学科请求。
func (h *SubjectHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	subject, err := h.subjectService.CreateSubject(req.Name)
	if err != nil {
		log.Errorf("[SubjectHandler] 创建学科失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create subject"})
		return
	}
	c.JSON(http.StatusCreated, subject)
}

// List 返回全部学科，按创建时间倒序。
func (h *SubjectHandler) List(c *gin.Context) {
	subjects, err := h.subjectService.ListSubjects()
	if err != nil {
		log.Errorf("[SubjectHandler] 查询学科列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list subjects"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": subjects})
}

// Get 返回单个学科。
func (h *SubjectHandler) Get(c *gin.Context) {
	subject, err := h.subjectService.GetSubject(c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subject not found"})
			return
		}
		log.Errorf("[SubjectHandler] 查询学科失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch subject"})
		return
	}
	c.JSON(http.StatusOK, subject)
}
