package service

import (
	"context"
	"testing"

	"smartqa_backend/internal/model"
	"smartqa_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreAnswers(t *testing.T) {
	questions := []model.Question{
		{BaseModel: model.BaseModel{ID: 1}, CorrectAnswer: "A"},
		{BaseModel: model.BaseModel{ID: 2}, CorrectAnswer: "B"},
		{BaseModel: model.BaseModel{ID: 3}, CorrectAnswer: "C"},
		{BaseModel: model.BaseModel{ID: 4}, CorrectAnswer: "D"},
	}

	tests := []struct {
		name    string
		answers map[string]string
		correct int
		score   float64
	}{
		{"all correct", map[string]string{"1": "A", "2": "B", "3": "C", "4": "D"}, 4, 100},
		{"case and spaces", map[string]string{"1": " a ", "2": "b"}, 2, 50},
		{"unknown ids ignored", map[string]string{"1": "A", "99": "A"}, 1, 25},
		{"none answered", map[string]string{}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			correct, total, score := ScoreAnswers(questions, tt.answers)
			assert.Equal(t, tt.correct, correct)
			assert.Equal(t, 4, total)
			assert.Equal(t, tt.score, score)
		})
	}

	correct, total, score := ScoreAnswers(nil, map[string]string{"1": "A"})
	assert.Zero(t, correct)
	assert.Zero(t, total)
	assert.Zero(t, score)
}

func TestSubmitRecordsResultAndHistory(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.register(t, "admin", model.Admin)
	student, _ := e.register(t, "stud", model.Student)
	test := e.createTest(t, admin.ID, "A", "B", "C")

	answers := map[string]string{}
	for i, q := range test.Questions {
		if i < 2 {
			answers[uintKey(q.ID)] = q.CorrectAnswer
		} else {
			answers[uintKey(q.ID)] = "A"
		}
	}
	result, err := e.tests.Submit(student.ID, SubmitInput{TestID: test.ID, Answers: answers, TimeTakenMinutes: 7.5})
	require.NoError(t, err)
	assert.Equal(t, 2, result.CorrectAnswers)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.InDelta(t, 66.67, result.Score, 0.01)
	assert.Equal(t, "A", result.AnswerMap()[uintKey(test.Questions[0].ID)])

	u, err := e.userRepo.FindByID(student.ID)
	require.NoError(t, err)
	require.Len(t, u.History(), 1)
	assert.Equal(t, result.ID, u.History()[0].ResultID)

	stats, err := e.stats.UserStats(student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalTests)
	assert.Equal(t, int64(1), stats.CompletedTests)
	assert.Equal(t, 66.7, stats.AverageScore)
}

func TestSubmitInactiveTest(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.register(t, "admin", model.Admin)
	student, _ := e.register(t, "stud", model.Student)
	test := e.createTest(t, admin.ID, "A")

	inactive := false
	_, err := e.tests.Update(test.ID, admin.ID, UpdateTestInput{IsActive: &inactive})
	require.NoError(t, err)

	_, err = e.tests.Submit(student.ID, SubmitInput{TestID: test.ID})
	assert.ErrorIs(t, err, util.ErrTestNotActive)

	_, err = e.tests.GetActive(test.ID)
	assert.ErrorIs(t, err, util.ErrTestNotFound)

	_, err = e.tests.Submit(student.ID, SubmitInput{TestID: 999})
	assert.ErrorIs(t, err, util.ErrTestNotFound)
}

func TestQuestionsHiddenForStudents(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.register(t, "admin", model.Admin)
	test := e.createTest(t, admin.ID, "B")

	qs, err := e.tests.Questions(test.ID, false)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, model.HiddenAnswer, qs[0].CorrectAnswer)

	qs, err = e.tests.Questions(test.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "B", qs[0].CorrectAnswer)

	tests, err := e.tests.StudentTests()
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, model.HiddenAnswer, tests[0].Questions[0].CorrectAnswer)
}

func TestCreateTestRejectsBadAnswer(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.register(t, "admin", model.Admin)
	_, err := e.tests.Create(admin.ID, CreateTestInput{
		TestName: "x", Topic: "y",
		Questions: []QuestionInput{{QuestionText: "q", Options: map[string]string{"A": "1", "B": "2"}, CorrectAnswer: "E"}},
	})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestGenerateTestFromAI(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.register(t, "admin", model.Admin)
	e.fake.setReply(func(system, prompt string) string {
		return "```json\n[" +
			`{"question_text":"What is overfitting?","options":{"A":"x","B":"y","C":"z","D":"w"},"correct_answer":"b","explanation":"e","difficulty":"hard"},` +
			`{"question_text":"","options":{"A":"x"},"correct_answer":"A"},` +
			`{"question_text":"What is a tensor?","options":{"A":"x","B":"y","C":"z","D":"w"},"correct_answer":"C"}` +
			"]\n```"
	})

	res, err := e.tests.Generate(context.Background(), admin.ID, GenerateTestInput{TestName: "AI", Topic: "deep learning", NumQuestions: 5})
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, 2, res.NumQuestions)
	assert.Contains(t, e.fake.lastPrompt(), "deep learning")

	test, err := e.tests.GetOwned(res.TestID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, test.TimeLimitMinutes)
	assert.Equal(t, "AI-generated medium test on deep learning", test.Description)
	require.Len(t, test.Questions, 2)
	assert.Equal(t, "B", test.Questions[0].CorrectAnswer)
	assert.Equal(t, model.Hard, test.Questions[0].Difficulty)
	assert.Equal(t, model.Medium, test.Questions[1].Difficulty)
}

func TestGenerateTestFallback(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.register(t, "admin", model.Admin)
	e.fake.setReply(func(system, prompt string) string { return "sorry, I cannot do that" })

	res, err := e.tests.Generate(context.Background(), admin.ID, GenerateTestInput{TestName: "AI", Topic: "stats", NumQuestions: 3, Difficulty: "easy"})
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, 3, res.NumQuestions)

	test, err := e.tests.GetOwned(res.TestID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "What is the primary goal of supervised learning?", test.Questions[0].QuestionText)
	assert.Equal(t, "C", test.Questions[1].CorrectAnswer)
	assert.Equal(t, model.Easy, test.Questions[2].Difficulty)

	// AI 不可用同样退回内置题目
	e.fake.setFail(true)
	res, err = e.tests.Generate(context.Background(), admin.ID, GenerateTestInput{TestName: "AI", Topic: "stats", NumQuestions: 1})
	require.NoError(t, err)
	assert.True(t, res.Fallback)

	_, err = e.tests.Generate(context.Background(), admin.ID, GenerateTestInput{TestName: "AI", Topic: "stats", NumQuestions: 51})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestAdminTestOwnership(t *testing.T) {
	e := newEnv(t)
	owner, _ := e.register(t, "owner", model.Admin)
	other, _ := e.register(t, "other", model.Admin)
	test := e.createTest(t, owner.ID, "A")

	name := "Renamed"
	_, err := e.tests.Update(test.ID, other.ID, UpdateTestInput{TestName: &name})
	assert.ErrorIs(t, err, util.ErrTestNotFound)
	assert.ErrorIs(t, e.tests.Delete(test.ID, other.ID), util.ErrTestNotFound)

	updated, err := e.tests.Update(test.ID, owner.ID, UpdateTestInput{TestName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.TestName)
	assert.Equal(t, "ml", updated.Topic)

	require.NoError(t, e.tests.Delete(test.ID, owner.ID))
	_, err = e.tests.GetOwned(test.ID, owner.ID)
	assert.ErrorIs(t, err, util.ErrTestNotFound)
}

func TestProctorLogging(t *testing.T) {
	e := newEnv(t)
	admin, adminClaims := e.register(t, "admin", model.Admin)
	student, claims := e.register(t, "stud", model.Student)
	_, otherClaims := e.register(t, "other", model.Student)
	test := e.createTest(t, admin.ID, "A")

	result, err := e.tests.Submit(student.ID, SubmitInput{TestID: test.ID})
	require.NoError(t, err)

	summary, err := e.proctor.Log(claims, ProctorLogInput{ResultID: result.ID, TestID: test.ID, ViolationType: "tab_switch"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ViolationCount)
	assert.False(t, summary.IsFlagged)

	_, err = e.proctor.Log(otherClaims, ProctorLogInput{ResultID: result.ID, TestID: test.ID, ViolationType: "tab_switch"})
	assert.ErrorIs(t, err, util.ErrResultNotFound)

	_, err = e.proctor.Log(claims, ProctorLogInput{ResultID: result.ID, TestID: test.ID + 1, ViolationType: "tab_switch"})
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	v, err := e.proctor.Violations(adminClaims, result.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v.ViolationCount)

	logs, err := e.proctor.Reports(test.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "tab_switch", logs[0].ViolationType)
}
