package service

import (
	"context"
	"fmt"
	"smartqa_backend/internal/model"
	"smartqa_backend/internal/repository"
	"smartqa_backend/internal/util"
	"smartqa_backend/pkg/logger"
	"smartqa_backend/pkg/vectordb"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type QAService struct {
	Documents   *DocumentService
	LLM         LLM
	Embedder    Embedder
	Index       VectorIndex
	HistoryRepo *repository.QAHistoryRepository
	TopK        int
}

func NewQAService(documents *DocumentService, llm LLM, embedder Embedder, index VectorIndex, historyRepo *repository.QAHistoryRepository, topK int) *QAService {
	if topK <= 0 {
		topK = 5
	}
	return &QAService{
		Documents:   documents,
		LLM:         llm,
		Embedder:    embedder,
		Index:       index,
		HistoryRepo: historyRepo,
		TopK:        topK,
	}
}

type AskInput struct {
	Question    string `json:"question" binding:"required"`
	DocumentIDs []uint `json:"document_ids"`
	SessionID   string `json:"session_id"`
}

type Citation struct {
	DocumentID uint    `json:"document_id"`
	DocName    string  `json:"doc_name"`
	PageNumber int     `json:"page_number"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

type AskResult struct {
	Answer      string     `json:"answer"`
	Source      string     `json:"source"`
	Confidence  float64    `json:"confidence"`
	Citations   []Citation `json:"citations,omitempty"`
	PageNumbers []int      `json:"page_numbers,omitempty"`
	SessionID   string     `json:"session_id"`
}

// AskPlan 检索后确定的提示词与引用来源
type AskPlan struct {
	System    string
	Prompt    string
	Source    string
	Citations []Citation
	Pages     []int
	SessionID string
}

type DocumentAskInput struct {
	DocumentID uint   `json:"document_id" binding:"required"`
	Question   string `json:"question" binding:"required"`
}

type DocumentAskResult struct {
	Answer     string `json:"answer"`
	DocumentID uint   `json:"document_id"`
	DocName    string `json:"doc_name"`
}

// Plan 在可访问的已处理文档中检索，没有命中时退回通用回答
func (s *QAService) Plan(ctx context.Context, claims *util.Claims, in AskInput) (*AskPlan, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", util.ErrInvalidInput)
	}
	plan := &AskPlan{
		System:    systemAssistant,
		Prompt:    answerPrompt(question),
		Source:    util.SourceAI,
		SessionID: in.SessionID,
	}
	if plan.SessionID == "" {
		plan.SessionID = uuid.NewString()
	}
	if len(in.DocumentIDs) == 0 {
		return plan, nil
	}

	docs, err := s.Documents.Accessible(claims, in.DocumentIDs)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return plan, nil
	}

	names := make(map[uint]string, len(docs))
	ids := make([]uint, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		names[d.ID] = d.DocName
	}

	vectors, err := s.Embedder.Embed(ctx, []string{question})
	if err != nil {
		// 检索失败时退回通用回答
		logger.Log.Warn("question embedding failed", zap.Error(err))
		return plan, nil
	}
	matches, err := s.Index.Search(ctx, vectors[0], ids, s.TopK)
	if err != nil {
		logger.Log.Warn("vector search failed", zap.Error(err))
		return plan, nil
	}
	if len(matches) == 0 {
		return plan, nil
	}

	plan.System = systemTutor
	plan.Prompt = contextPrompt(question, buildContext(matches, names))
	plan.Source = util.SourceDocument
	plan.Citations, plan.Pages = citationsFor(matches, names)
	return plan, nil
}

func buildContext(matches []vectordb.Match, names map[uint]string) string {
	var b strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&b, "[%d] %s (page %d)\n%s\n\n", i+1, names[m.DocumentID], m.PageNumber, m.Text)
	}
	return strings.TrimSpace(b.String())
}

func citationsFor(matches []vectordb.Match, names map[uint]string) ([]Citation, []int) {
	citations := make([]Citation, len(matches))
	seen := map[int]bool{}
	var pages []int
	for i, m := range matches {
		citations[i] = Citation{
			DocumentID: m.DocumentID,
			DocName:    names[m.DocumentID],
			PageNumber: m.PageNumber,
			ChunkIndex: m.Index,
			Text:       truncateRunes(m.Text, 300),
			Score:      m.Score,
		}
		if m.PageNumber > 0 && !seen[m.PageNumber] {
			seen[m.PageNumber] = true
			pages = append(pages, m.PageNumber)
		}
	}
	sort.Ints(pages)
	return citations, pages
}

func (p *AskPlan) Result(answer string) *AskResult {
	res := &AskResult{
		Answer:    answer,
		Source:    p.Source,
		SessionID: p.SessionID,
	}
	if p.Source == util.SourceDocument {
		res.Confidence = util.DocumentConfidence
		res.Citations = p.Citations
		res.PageNumbers = p.Pages
	} else {
		res.Confidence = util.AIConfidence
	}
	return res
}

func (s *QAService) Ask(ctx context.Context, claims *util.Claims, in AskInput) (*AskResult, error) {
	plan, err := s.Plan(ctx, claims, in)
	if err != nil {
		return nil, err
	}
	answer, err := s.LLM.Chat(ctx, plan.System, plan.Prompt)
	if err != nil {
		return nil, err
	}
	result := plan.Result(answer)
	s.SaveHistory(claims.UserID, in.Question, result)
	return result, nil
}

// SaveHistory 失败只记录日志
func (s *QAService) SaveHistory(userID uint, question string, result *AskResult) {
	if err := s.HistoryRepo.Create(&model.AIQAHistory{
		UserID:    userID,
		SessionID: result.SessionID,
		Question:  question,
		Answer:    result.Answer,
		Source:    result.Source,
	}); err != nil {
		logger.Log.Warn("failed to save QA history", zap.Uint("user_id", userID), zap.Error(err))
	}
}

func (s *QAService) History(userID uint, limit int) ([]model.AIQAHistory, error) {
	return s.HistoryRepo.ListByUser(userID, limit)
}

// AskDocument 整篇文档（截断）作为上下文回答
func (s *QAService) AskDocument(ctx context.Context, claims *util.Claims, in DocumentAskInput) (*DocumentAskResult, error) {
	doc, err := s.Documents.Get(claims, in.DocumentID)
	if err != nil {
		return nil, err
	}
	res, err := s.Documents.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}
	answer, err := s.LLM.Chat(ctx, systemTutor, documentPrompt(doc.DocName, res.Text(), in.Question))
	if err != nil {
		return nil, err
	}
	s.SaveHistory(claims.UserID, in.Question, &AskResult{
		Answer:    answer,
		Source:    util.SourceDocument,
		SessionID: uuid.NewString(),
	})
	return &DocumentAskResult{Answer: answer, DocumentID: doc.ID, DocName: doc.DocName}, nil
}

func (s *QAService) documentText(ctx context.Context, claims *util.Claims, docID uint) (*model.Document, string, error) {
	doc, err := s.Documents.Get(claims, docID)
	if err != nil {
		return nil, "", err
	}
	res, err := s.Documents.Extract(ctx, doc)
	if err != nil {
		return nil, "", err
	}
	text := res.Text()
	if strings.TrimSpace(text) == "" {
		return nil, "", util.ErrDocumentEmpty
	}
	return doc, text, nil
}

// GenerateQuestions 无法解析时返回一道通用题目
func (s *QAService) GenerateQuestions(ctx context.Context, claims *util.Claims, docID uint, n int) ([]GeneratedQuestion, error) {
	if n <= 0 {
		n = 5
	}
	if n > 50 {
		return nil, fmt.Errorf("%w: num_questions must be between 1 and 50", util.ErrInvalidInput)
	}
	_, text, err := s.documentText(ctx, claims, docID)
	if err != nil {
		return nil, err
	}

	raw, err := s.LLM.Chat(ctx, systemGenerator, documentQuizPrompt(text, n))
	if err != nil {
		return nil, err
	}
	questions, err := parseGeneratedQuestions(raw, n)
	if err != nil {
		logger.Log.Warn("could not parse generated quiz", zap.Uint("document_id", docID), zap.Error(err))
		return []GeneratedQuestion{{
			QuestionText: "What is the main topic discussed in this document?",
			Options: map[string]string{
				"A": "General information",
				"B": "Specific technical details",
				"C": "Historical overview",
				"D": "Future predictions",
			},
			CorrectAnswer: "A",
			Explanation:   "Sample question returned because the AI output could not be parsed.",
			Difficulty:    string(model.Easy),
		}}, nil
	}
	return questions, nil
}

func (s *QAService) Summarize(ctx context.Context, claims *util.Claims, docID uint) (string, error) {
	_, text, err := s.documentText(ctx, claims, docID)
	if err != nil {
		return "", err
	}
	return s.LLM.Chat(ctx, systemAssistant, summaryPrompt(text))
}
