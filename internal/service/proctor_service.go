package service

import (
	"errors"
	"smartqa_backend/internal/model"
	"smartqa_backend/internal/repository"
	"smartqa_backend/internal/util"
	"smartqa_backend/pkg/monitoring"
	"strings"

	"gorm.io/gorm"
)

type ProctorService struct {
	ProctorRepo *repository.ProctorRepository
	Results     *ResultService
}

func NewProctorService(proctorRepo *repository.ProctorRepository, results *ResultService) *ProctorService {
	return &ProctorService{ProctorRepo: proctorRepo, Results: results}
}

type ProctorLogInput struct {
	ResultID      uint   `json:"result_id" binding:"required"`
	TestID        uint   `json:"test_id" binding:"required"`
	ViolationType string `json:"violation_type" binding:"required"`
}

// 监控指标只使用已知的违规类型作为 label
var knownViolations = map[string]bool{
	"no_face":         true,
	"multiple_faces":  true,
	"looking_away":    true,
	"tab_switch":      true,
	"window_blur":     true,
	"copy_paste":      true,
	"fullscreen_exit": true,
}

func violationLabel(v string) string {
	if knownViolations[v] {
		return v
	}
	return "other"
}

type ViolationSummary struct {
	Success        bool `json:"success"`
	ResultID       uint `json:"result_id"`
	ViolationCount int  `json:"violation_count"`
	IsFlagged      bool `json:"is_flagged"`
}

// Log 只能为自己的作答记录违规
func (s *ProctorService) Log(claims *util.Claims, in ProctorLogInput) (*ViolationSummary, error) {
	result, err := s.Results.Get(claims, in.ResultID)
	if err != nil {
		return nil, err
	}
	if result.UserID != claims.UserID {
		return nil, util.ErrPermissionDenied
	}
	if result.TestID != in.TestID {
		return nil, util.ErrInvalidInput
	}

	violation := strings.TrimSpace(in.ViolationType)
	updated, err := s.ProctorRepo.LogViolation(&model.ProctorLog{
		ResultID:      result.ID,
		UserID:        claims.UserID,
		TestID:        result.TestID,
		ViolationType: violation,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResultNotFound
		}
		return nil, err
	}
	monitoring.ProctorViolations.WithLabelValues(violationLabel(violation)).Inc()

	return &ViolationSummary{
		Success:        true,
		ResultID:       updated.ID,
		ViolationCount: updated.ProctoringViolations,
		IsFlagged:      updated.IsFlagged,
	}, nil
}

func (s *ProctorService) Reports(testID uint) ([]model.ProctorLog, error) {
	return s.ProctorRepo.ListByTest(testID)
}

func (s *ProctorService) Violations(claims *util.Claims, resultID uint) (*ViolationSummary, error) {
	result, err := s.Results.Get(claims, resultID)
	if err != nil {
		return nil, err
	}
	return &ViolationSummary{
		ResultID:       result.ID,
		ViolationCount: result.ProctoringViolations,
		IsFlagged:      result.IsFlagged,
	}, nil
}
