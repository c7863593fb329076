package service

import (
	"prepsmart-go/internal/model"
	"prepsmart-go/internal/repository"

	"github.com/google/uuid"
)

// SubjectService 接口定义了学科管理相关的业务操作。
type SubjectService interface {
	CreateSubject(name string) (*model.Subject, error)
	GetSubject(id string) (*model.Subject, error)
	ListSubjects() ([]*model.Subject, error)
}

type subjectService struct {
	subjectRepo repository.SubjectRepository
}

// NewSubjectService 创建一个新的 SubjectService 实例。
func NewSubjectService(subjectRepo repository.SubjectRepository) SubjectService {
	return &subjectService{subjectRepo: subjectRepo}
}

func (s *subjectService) CreateSubject(name string) (*model.Subject, error) {
	subject := &model.Subject{
		ID:   uuid.NewString(),
		Name: name,
	}
	if err := s.subjectRepo.Create(subject); err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *subjectService) GetSubject(id string) (*model.Subject, error) {
	return s.subjectRepo.FindByID(id)
}

func (s *subjectService) ListSubjects() ([]*model.Subject, error) {
	return s.subjectRepo.FindAll()
}
