package service

import (
	"encoding/json"
	"fmt"
	"smartqa_backend/internal/model"
	"strings"
)

const (
	systemAssistant = "You are an intelligent assistant for an e-learning platform. Provide helpful, accurate and detailed answers. If you are not certain about something, say so."
	systemTutor     = "You are an expert tutor. Answer using the provided document context. If the context does not contain enough information, say so and answer with what is available."
	systemGenerator = "You are an intelligent test generator for an AI-powered e-learning system. Return ONLY valid JSON."
)

// 生成题目时送入模型的文档正文上限
const maxGenerationChars = 4000

func answerPrompt(question string) string {
	return fmt.Sprintf("Question: %s\n\nAnswer:", question)
}

func contextPrompt(question, context string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:", context, question)
}

func documentPrompt(docName, text, question string) string {
	return fmt.Sprintf("Document: %s\n\nContent:\n%s\n\nQuestion: %s\n\nAnswer based on the document content:",
		docName, truncateRunes(text, 8000), question)
}

func summaryPrompt(text string) string {
	return fmt.Sprintf("Provide a comprehensive summary of the following document. Capture the main points, key concepts and important details.\n\nDocument Text:\n%s\n\nSummary:",
		truncateRunes(text, maxGenerationChars))
}

const questionSchema = `[
  {
    "question_text": "Question text here",
    "options": {"A": "First option", "B": "Second option", "C": "Third option", "D": "Fourth option"},
    "correct_answer": "A",
    "explanation": "Why the answer is correct",
    "difficulty": "%s"
  }
]`

func testGenerationPrompt(in GenerateTestInput) string {
	description := in.Description
	if description == "" {
		description = fmt.Sprintf("This test evaluates understanding of %s.", in.Topic)
	}
	name := in.TestName
	if name == "" {
		name = "General Test"
	}
	return fmt.Sprintf(`Test Name: %s
Topic: %s
Description: %s
Difficulty: %s

Generate exactly %d multiple-choice questions related to the topic and test details above.
Each question must have 4 options (A, B, C, D) and exactly one correct answer.
Questions should test deep understanding, be unambiguous and have distinct, plausible options.

Respond with a JSON array in this format:
%s`, name, in.Topic, description, in.Difficulty, in.NumQuestions, fmt.Sprintf(questionSchema, in.Difficulty))
}

func documentQuizPrompt(text string, n int) string {
	return fmt.Sprintf(`Based on the following document text, generate %d multiple-choice quiz questions.
Each question should have 4 options (A, B, C, D) with one correct answer and test understanding rather than memorization.

Document Text:
%s

Respond with a JSON array in this format:
%s`, n, truncateRunes(text, maxGenerationChars), fmt.Sprintf(questionSchema, model.Medium))
}

// GeneratedQuestion 模型返回的题目结构
type GeneratedQuestion struct {
	QuestionText  string            `json:"question_text"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation"`
	Difficulty    string            `json:"difficulty"`
}

// stripCodeFence 去掉 ```json ... ``` 包裹
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```JSON")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// parseGeneratedQuestions 解析并过滤不完整的题目
func parseGeneratedQuestions(raw string, limit int) ([]GeneratedQuestion, error) {
	text := stripCodeFence(raw)
	// 模型偶尔在数组前后夹带说明文字
	if i, j := strings.Index(text, "["), strings.LastIndex(text, "]"); i >= 0 && j > i {
		text = text[i : j+1]
	}

	var items []GeneratedQuestion
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("parse generated questions: %w", err)
	}

	valid := make([]GeneratedQuestion, 0, len(items))
	for _, q := range items {
		q.CorrectAnswer = strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))
		if strings.TrimSpace(q.QuestionText) == "" || len(q.Options) < 2 {
			continue
		}
		if _, ok := q.Options[q.CorrectAnswer]; !ok {
			continue
		}
		valid = append(valid, q)
		if limit > 0 && len(valid) == limit {
			break
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no usable questions in AI output")
	}
	return valid, nil
}

var fallbackQuestions = []GeneratedQuestion{
	{
		QuestionText: "What is the primary goal of supervised learning?",
		Options: map[string]string{
			"A": "To find patterns in unlabeled data",
			"B": "To learn from labeled training data to make predictions",
			"C": "To reduce dimensionality of data",
			"D": "To cluster similar data points",
		},
		CorrectAnswer: "B",
		Explanation:   "Supervised learning uses labeled training data to learn patterns and make predictions on new, unseen data.",
	},
	{
		QuestionText: "Which metric is commonly used for classification problems?",
		Options: map[string]string{
			"A": "Mean Squared Error",
			"B": "R-squared",
			"C": "Accuracy",
			"D": "Mean Absolute Error",
		},
		CorrectAnswer: "C",
		Explanation:   "Accuracy measures the proportion of correct predictions and is common for classification.",
	},
}

// fallbackTestQuestions 轮流使用内置题目补足数量
func fallbackTestQuestions(n int, difficulty model.Difficulty) []GeneratedQuestion {
	out := make([]GeneratedQuestion, n)
	for i := range out {
		q := fallbackQuestions[i%len(fallbackQuestions)]
		q.Difficulty = string(difficulty)
		out[i] = q
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (q GeneratedQuestion) toModel(fallback model.Difficulty) (model.Question, error) {
	m := model.Question{
		QuestionText:  strings.TrimSpace(q.QuestionText),
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		Difficulty:    fallback,
	}
	if q.Difficulty != "" {
		m.Difficulty = model.ParseDifficulty(q.Difficulty)
	}
	return m, m.SetOptions(q.Options)
}
