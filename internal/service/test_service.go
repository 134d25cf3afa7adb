package service

import (
	"context"
	"errors"
	"fmt"
	"smartqa_backend/internal/model"
	"smartqa_backend/internal/repository"
	"smartqa_backend/internal/util"
	"smartqa_backend/pkg/logger"
	"smartqa_backend/pkg/monitoring"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TestService struct {
	TestRepo   *repository.TestRepository
	ResultRepo *repository.ResultRepository
	LLM        LLM
}

func NewTestService(testRepo *repository.TestRepository, resultRepo *repository.ResultRepository, llm LLM) *TestService {
	return &TestService{TestRepo: testRepo, ResultRepo: resultRepo, LLM: llm}
}

type QuestionInput struct {
	QuestionText  string            `json:"question_text" binding:"required"`
	Options       map[string]string `json:"options" binding:"required"`
	CorrectAnswer string            `json:"correct_answer" binding:"required"`
	Explanation   string            `json:"explanation"`
	Difficulty    string            `json:"difficulty"`
}

type CreateTestInput struct {
	TestName         string          `json:"test_name" binding:"required"`
	Topic            string          `json:"topic" binding:"required"`
	Description      string          `json:"description"`
	TimeLimitMinutes int             `json:"time_limit_minutes"`
	Questions        []QuestionInput `json:"questions"`
}

type UpdateTestInput struct {
	TestName         *string `json:"test_name"`
	Topic            *string `json:"topic"`
	Description      *string `json:"description"`
	IsActive         *bool   `json:"is_active"`
	TimeLimitMinutes *int    `json:"time_limit_minutes"`
}

type GenerateTestInput struct {
	TestName         string           `json:"test_name" form:"test_name" binding:"required"`
	Topic            string           `json:"topic" form:"topic" binding:"required"`
	NumQuestions     int              `json:"num_questions" form:"num_questions"`
	Difficulty       model.Difficulty `json:"difficulty" form:"difficulty"`
	TimeLimitMinutes int              `json:"time_limit_minutes" form:"time_limit_minutes"`
	Description      string           `json:"description" form:"description"`
}

type GenerateTestResult struct {
	Message      string `json:"message"`
	TestID       uint   `json:"test_id"`
	TestName     string `json:"test_name"`
	NumQuestions int    `json:"num_questions"`
	Fallback     bool   `json:"fallback"`
}

type SubmitInput struct {
	TestID           uint              `json:"test_id" binding:"required"`
	Answers          map[string]string `json:"answers"`
	TimeTakenMinutes float64           `json:"time_taken_minutes"`
}

type SubmitResult struct {
	Message  string  `json:"message"`
	Score    float64 `json:"score"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	ResultID uint    `json:"result_id"`
}

// Normalize 填充默认值
func (in *GenerateTestInput) Normalize() error {
	if in.NumQuestions == 0 {
		in.NumQuestions = 25
	}
	if in.NumQuestions < 1 || in.NumQuestions > 50 {
		return fmt.Errorf("%w: num_questions must be between 1 and 50", util.ErrInvalidInput)
	}
	in.Difficulty = model.ParseDifficulty(string(in.Difficulty))
	if in.TimeLimitMinutes <= 0 {
		in.TimeLimitMinutes = 20
	}
	return nil
}

// ScoreAnswers 总数为测试题目数；未知题号忽略；字母比较忽略大小写和空白
func ScoreAnswers(questions []model.Question, answers map[string]string) (correct, total int, score float64) {
	total = len(questions)
	for _, q := range questions {
		if a, ok := answers[strconv.FormatUint(uint64(q.ID), 10)]; ok && q.IsCorrect(a) {
			correct++
		}
	}
	if total > 0 {
		score = float64(correct) / float64(total) * 100
	}
	return correct, total, score
}

// HideAnswers 非管理员看不到正确答案和解析
func HideAnswers(questions []model.Question) []model.Question {
	out := make([]model.Question, len(questions))
	for i, q := range questions {
		q.CorrectAnswer = model.HiddenAnswer
		q.Explanation = ""
		out[i] = q
	}
	return out
}

func (s *TestService) find(id uint) (*model.Test, error) {
	test, err := s.TestRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}
	return test, nil
}

func (s *TestService) ListActive() ([]repository.TestListRow, error) {
	return s.TestRepo.ListActive()
}

// GetActive 未激活的测试对外不可见
func (s *TestService) GetActive(id uint) (*repository.TestListRow, error) {
	test, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if !test.IsActive {
		return nil, util.ErrTestNotFound
	}
	count, err := s.TestRepo.CountQuestions(id)
	if err != nil {
		return nil, err
	}
	return &repository.TestListRow{Test: *test, QuestionCount: int(count)}, nil
}

func (s *TestService) Questions(id uint, isAdmin bool) ([]model.Question, error) {
	test, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !test.IsActive {
		return nil, util.ErrTestNotFound
	}
	questions, err := s.TestRepo.Questions(id)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		questions = HideAnswers(questions)
	}
	return questions, nil
}

// StudentTests 学生端：激活测试及隐藏答案后的题目
func (s *TestService) StudentTests() ([]model.Test, error) {
	tests, err := s.TestRepo.ListActiveWithQuestions()
	if err != nil {
		return nil, err
	}
	for i := range tests {
		tests[i].Questions = HideAnswers(tests[i].Questions)
	}
	return tests, nil
}

func (s *TestService) StudentTest(id uint) (*model.Test, error) {
	test, err := s.TestRepo.FindWithQuestions(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}
	if !test.IsActive {
		return nil, util.ErrTestNotFound
	}
	test.Questions = HideAnswers(test.Questions)
	return test, nil
}

func (s *TestService) Submit(userID uint, in SubmitInput) (*model.Result, error) {
	test, err := s.find(in.TestID)
	if err != nil {
		return nil, err
	}
	if !test.IsActive {
		return nil, util.ErrTestNotActive
	}
	questions, err := s.TestRepo.Questions(test.ID)
	if err != nil {
		return nil, err
	}

	answers := make(map[string]string, len(in.Answers))
	for k, v := range in.Answers {
		answers[strings.TrimSpace(k)] = strings.ToUpper(strings.TrimSpace(v))
	}
	correct, total, score := ScoreAnswers(questions, answers)

	result := &model.Result{
		UserID:           userID,
		TestID:           test.ID,
		Score:            score,
		TotalQuestions:   total,
		CorrectAnswers:   correct,
		TimeTakenMinutes: max(in.TimeTakenMinutes, 0),
		CompletedAt:      time.Now(),
	}
	b, err := jsonMarshal(answers)
	if err != nil {
		return nil, err
	}
	result.Answers = b

	if err := s.ResultRepo.CreateWithHistory(result); err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}
	monitoring.TestSubmissions.Inc()
	return result, nil
}

func buildQuestions(inputs []QuestionInput) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(inputs))
	for i, in := range inputs {
		letter := strings.ToUpper(strings.TrimSpace(in.CorrectAnswer))
		if _, ok := in.Options[letter]; !ok {
			return nil, fmt.Errorf("%w: question %d correct_answer %q is not one of the options", util.ErrInvalidInput, i+1, in.CorrectAnswer)
		}
		q, err := GeneratedQuestion{
			QuestionText:  in.QuestionText,
			Options:       in.Options,
			CorrectAnswer: letter,
			Explanation:   in.Explanation,
			Difficulty:    in.Difficulty,
		}.toModel(model.Medium)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (s *TestService) Create(adminID uint, in CreateTestInput) (*model.Test, error) {
	questions, err := buildQuestions(in.Questions)
	if err != nil {
		return nil, err
	}
	limit := in.TimeLimitMinutes
	if limit <= 0 {
		limit = 60
	}
	test := &model.Test{
		AdminID:          adminID,
		TestName:         strings.TrimSpace(in.TestName),
		Topic:            strings.TrimSpace(in.Topic),
		Description:      in.Description,
		IsActive:         true,
		TimeLimitMinutes: limit,
		Questions:        questions,
	}
	if err := s.TestRepo.Create(test); err != nil {
		return nil, err
	}
	return test, nil
}

// Generate 调用模型出题，输出无法解析时使用内置题目
func (s *TestService) Generate(ctx context.Context, adminID uint, in GenerateTestInput) (*GenerateTestResult, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

	fallback := false
	raw, err := s.LLM.Chat(ctx, systemGenerator, testGenerationPrompt(in))
	var generated []GeneratedQuestion
	if err == nil {
		generated, err = parseGeneratedQuestions(raw, in.NumQuestions)
	}
	if err != nil {
		logger.Log.Warn("AI test generation failed, using fallback questions",
			zap.String("topic", in.Topic),
			zap.Error(err))
		generated = fallbackTestQuestions(in.NumQuestions, in.Difficulty)
		fallback = true
	}

	questions := make([]model.Question, 0, len(generated))
	for _, g := range generated {
		q, err := g.toModel(in.Difficulty)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	description := in.Description
	if description == "" {
		description = fmt.Sprintf("AI-generated %s test on %s", in.Difficulty, in.Topic)
	}
	test := &model.Test{
		AdminID:          adminID,
		TestName:         in.TestName,
		Topic:            in.Topic,
		Description:      description,
		IsActive:         true,
		TimeLimitMinutes: in.TimeLimitMinutes,
		Questions:        questions,
	}
	if err := s.TestRepo.Create(test); err != nil {
		return nil, err
	}

	return &GenerateTestResult{
		Message:      "Test generated successfully",
		TestID:       test.ID,
		TestName:     test.TestName,
		NumQuestions: len(questions),
		Fallback:     fallback,
	}, nil
}

func (s *TestService) ListOwned(adminID uint) ([]repository.TestListRow, error) {
	return s.TestRepo.ListByAdmin(adminID)
}

func (s *TestService) GetOwned(id, adminID uint) (*model.Test, error) {
	test, err := s.TestRepo.FindOwned(id, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}
	return test, nil
}

func (s *TestService) Update(id, adminID uint, in UpdateTestInput) (*model.Test, error) {
	if _, err := s.GetOwned(id, adminID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.TestName != nil {
		fields["test_name"] = strings.TrimSpace(*in.TestName)
	}
	if in.Topic != nil {
		fields["topic"] = strings.TrimSpace(*in.Topic)
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.TimeLimitMinutes != nil {
		if *in.TimeLimitMinutes <= 0 {
			return nil, fmt.Errorf("%w: time_limit_minutes must be positive", util.ErrInvalidInput)
		}
		fields["time_limit_minutes"] = *in.TimeLimitMinutes
	}
	if err := s.TestRepo.Update(id, fields); err != nil {
		return nil, err
	}
	return s.GetOwned(id, adminID)
}

func (s *TestService) Delete(id, adminID uint) error {
	if _, err := s.GetOwned(id, adminID); err != nil {
		return err
	}
	return s.TestRepo.Delete(id)
}
