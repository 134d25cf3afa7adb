package service

import (
	"context"
	"strings"
	"testing"

	"smartqa_backend/internal/model"
	"smartqa_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskWithoutDocuments(t *testing.T) {
	e := newEnv(t)
	user, claims := e.register(t, "stud", model.Student)
	e.fake.setReply(func(system, prompt string) string { return "Gradient descent minimises loss." })

	res, err := e.qa.Ask(context.Background(), claims, AskInput{Question: "What is gradient descent?"})
	require.NoError(t, err)
	assert.Equal(t, util.SourceAI, res.Source)
	assert.Equal(t, util.AIConfidence, res.Confidence)
	assert.Empty(t, res.Citations)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, "Question: What is gradient descent?\n\nAnswer:", e.fake.lastPrompt())

	history, err := e.qa.History(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, res.SessionID, history[0].SessionID)
	assert.Equal(t, util.SourceAI, history[0].Source)

	_, err = e.qa.Ask(context.Background(), claims, AskInput{Question: "  "})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestAskWithDocumentContext(t *testing.T) {
	e := newEnv(t)
	_, claims := e.register(t, "stud", model.Student)
	doc := e.upload(t, claims, "bio.txt", photosynthesisText)
	require.True(t, doc.IsProcessed)

	res, err := e.qa.Ask(context.Background(), claims, AskInput{
		Question:    "What does chlorophyll absorb in photosynthesis?",
		DocumentIDs: []uint{doc.ID},
		SessionID:   "session-1",
	})
	require.NoError(t, err)
	assert.Equal(t, util.SourceDocument, res.Source)
	assert.Equal(t, util.DocumentConfidence, res.Confidence)
	assert.Equal(t, "session-1", res.SessionID)
	assert.Equal(t, []int{1}, res.PageNumbers)
	require.NotEmpty(t, res.Citations)
	assert.LessOrEqual(t, len(res.Citations), 3)
	assert.Equal(t, "bio.txt", res.Citations[0].DocName)

	prompt := e.fake.lastPrompt()
	assert.True(t, strings.HasPrefix(prompt, "Context:\n[1] bio.txt (page 1)"))
	assert.Contains(t, prompt, "Question: What does chlorophyll absorb in photosynthesis?")
}

func TestAskIgnoresUnreadableDocuments(t *testing.T) {
	e := newEnv(t)
	_, alice := e.register(t, "alice", model.Student)
	_, bob := e.register(t, "bob", model.Student)
	doc := e.upload(t, alice, "bio.txt", photosynthesisText)

	res, err := e.qa.Ask(context.Background(), bob, AskInput{Question: "chlorophyll?", DocumentIDs: []uint{doc.ID, 999}})
	require.NoError(t, err)
	assert.Equal(t, util.SourceAI, res.Source)
	assert.NotContains(t, e.fake.lastPrompt(), "Calvin")
}

func TestAskAIUnavailable(t *testing.T) {
	e := newEnv(t)
	_, claims := e.register(t, "stud", model.Student)

	noKey := e.cfg.AI
	noKey.APIKey = ""
	e.ai.UpdateConfig(noKey)
	_, err := e.qa.Ask(context.Background(), claims, AskInput{Question: "hello"})
	assert.ErrorIs(t, err, util.ErrAIUnavailable)
	assert.False(t, e.ai.Configured())
}

func TestChatStream(t *testing.T) {
	e := newEnv(t)
	e.fake.setReply(func(system, prompt string) string { return "streamed answer here" })

	tokens, errs := e.ai.ChatStream(context.Background(), systemAssistant, answerPrompt("q"))
	var b strings.Builder
	for tok := range tokens {
		b.WriteString(tok)
	}
	require.NoError(t, <-errs)
	assert.Equal(t, "streamed answer here", b.String())
}

func TestAskDocumentAndSummary(t *testing.T) {
	e := newEnv(t)
	_, claims := e.register(t, "stud", model.Student)
	_, other := e.register(t, "other", model.Student)
	doc := e.upload(t, claims, "bio.txt", photosynthesisText)
	ctx := context.Background()

	e.fake.setReply(func(system, prompt string) string { return "It absorbs sunlight." })
	res, err := e.qa.AskDocument(ctx, claims, DocumentAskInput{DocumentID: doc.ID, Question: "What absorbs sunlight?"})
	require.NoError(t, err)
	assert.Equal(t, "It absorbs sunlight.", res.Answer)
	assert.Equal(t, "bio.txt", res.DocName)
	assert.Contains(t, e.fake.lastPrompt(), "Document: bio.txt")

	_, err = e.qa.AskDocument(ctx, other, DocumentAskInput{DocumentID: doc.ID, Question: "x"})
	assert.ErrorIs(t, err, util.ErrDocumentNotFound)

	e.fake.setReply(func(system, prompt string) string { return "A summary." })
	summary, err := e.qa.Summarize(ctx, claims, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "A summary.", summary)
	assert.Contains(t, e.fake.lastPrompt(), "Photosynthesis is the process")
}

func TestGenerateDocumentQuestions(t *testing.T) {
	e := newEnv(t)
	_, claims := e.register(t, "stud", model.Student)
	doc := e.upload(t, claims, "bio.txt", photosynthesisText)
	ctx := context.Background()

	e.fake.setReply(func(system, prompt string) string {
		return `Here you go: [{"question_text":"Where does photosynthesis happen?","options":{"A":"Chloroplast","B":"Nucleus","C":"Ribosome","D":"Vacuole"},"correct_answer":"A"}]`
	})
	qs, err := e.qa.GenerateQuestions(ctx, claims, doc.ID, 0)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "Where does photosynthesis happen?", qs[0].QuestionText)
	assert.Contains(t, e.fake.lastPrompt(), "generate 5 multiple-choice")

	e.fake.setReply(func(system, prompt string) string { return "not json" })
	qs, err = e.qa.GenerateQuestions(ctx, claims, doc.ID, 3)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "What is the main topic discussed in this document?", qs[0].QuestionText)

	_, err = e.qa.GenerateQuestions(ctx, claims, doc.ID, 51)
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}
