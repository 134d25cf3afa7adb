package service

import (
	"errors"
	"smartqa_backend/internal/model"
	"smartqa_backend/internal/repository"
	"smartqa_backend/internal/util"
	"strconv"

	"gorm.io/gorm"
)

type ResultService struct {
	ResultRepo  *repository.ResultRepository
	TestService *TestService
}

func NewResultService(resultRepo *repository.ResultRepository, testService *TestService) *ResultService {
	return &ResultService{ResultRepo: resultRepo, TestService: testService}
}

type AnswerItem struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Answer     string `json:"answer"`
}

// ScoreSubmitInput /scores/submit 使用数组形式的答案
type ScoreSubmitInput struct {
	TestID           uint         `json:"test_id" binding:"required"`
	Answers          []AnswerItem `json:"answers"`
	TimeTakenMinutes float64      `json:"time_taken_minutes"`
}

func (in ScoreSubmitInput) toSubmitInput() SubmitInput {
	answers := make(map[string]string, len(in.Answers))
	for _, a := range in.Answers {
		answers[strconv.FormatUint(uint64(a.QuestionID), 10)] = a.Answer
	}
	return SubmitInput{TestID: in.TestID, Answers: answers, TimeTakenMinutes: in.TimeTakenMinutes}
}

func (s *ResultService) Submit(userID uint, in ScoreSubmitInput) (*model.Result, error) {
	return s.TestService.Submit(userID, in.toSubmitInput())
}

func (s *ResultService) ListAll() ([]model.Result, error) {
	return s.ResultRepo.ListAll()
}

func (s *ResultService) ListByUser(userID uint) ([]model.Result, error) {
	return s.ResultRepo.ListByUser(userID)
}

func (s *ResultService) ListByUserWithTest(userID uint) ([]repository.ResultWithTest, error) {
	return s.ResultRepo.ListByUserWithTest(userID)
}

// Get 学生只能查看自己的成绩
func (s *ResultService) Get(claims *util.Claims, id uint) (*model.Result, error) {
	result, err := s.ResultRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResultNotFound
		}
		return nil, err
	}
	if claims.Role != model.Admin && result.UserID != claims.UserID {
		return nil, util.ErrResultNotFound
	}
	return result, nil
}
