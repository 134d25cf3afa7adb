package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"smartqa_backend/internal/model"
	"smartqa_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const photosynthesisText = `Photosynthesis is the process used by plants to convert light energy into chemical energy.
Chlorophyll absorbs sunlight inside the chloroplast and the plant releases oxygen as a byproduct.
The Calvin cycle then fixes carbon dioxide into glucose which the plant stores as starch.
Water is split during the light reactions and electrons travel along the thylakoid membrane.`

func (e *env) upload(t *testing.T, claims *util.Claims, name, body string) *model.Document {
	t.Helper()
	doc, err := e.docs.UploadDocument(context.Background(), OwnerFromClaims(claims), name, int64(len(body)), strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func TestUploadProcessesDocument(t *testing.T) {
	e := newEnv(t)
	_, claims := e.register(t, "stud", model.Student)
	ctx := context.Background()

	doc := e.upload(t, claims, "bio.txt", photosynthesisText)
	assert.True(t, doc.IsProcessed)
	assert.Equal(t, "txt", doc.FileType)
	assert.Equal(t, len(strings.Fields(photosynthesisText)), doc.TotalWords)
	assert.Equal(t, 1, doc.TotalPages)
	require.NotNil(t, doc.UserID)
	assert.Nil(t, doc.AdminID)

	stored, err := e.docs.Get(claims, doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsProcessed)

	n, err := e.index.Count(ctx, doc.ID)
	require.NoError(t, err)
	assert.Greater(t, n, int64(1))

	rc, err := e.docs.Open(ctx, doc)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, photosynthesisText, string(data))

	content, err := e.docs.Content(ctx, doc)
	require.NoError(t, err)
	assert.Contains(t, content.Content, "Calvin cycle")
}

func TestUploadValidation(t *testing.T) {
	e := newEnv(t)
	_, claims := e.register(t, "stud", model.Student)
	owner := OwnerFromClaims(claims)
	ctx := context.Background()

	_, err := e.docs.UploadDocument(ctx, owner, "image.png", 3, strings.NewReader("png"))
	assert.ErrorIs(t, err, util.ErrUnsupportedFileType)

	big := strings.Repeat("a", 1<<20+1)
	_, err = e.docs.UploadDocument(ctx, owner, "big.txt", int64(len(big)), strings.NewReader(big))
	assert.ErrorIs(t, err, util.ErrFileTooLarge)

	// 声明大小不可信，按实际读取长度判断
	_, err = e.docs.UploadDocument(ctx, owner, "big.txt", 10, strings.NewReader(big))
	assert.ErrorIs(t, err, util.ErrFileTooLarge)

	e.upload(t, claims, "notes.txt", "hello world")
	_, err = e.docs.UploadDocument(ctx, owner, "notes.txt", 5, strings.NewReader("again"))
	assert.ErrorIs(t, err, util.ErrDuplicateDocument)
}

func TestUploadEmptyDocumentStaysUnprocessed(t *testing.T) {
	e := newEnv(t)
	_, claims := e.register(t, "stud", model.Student)

	doc := e.upload(t, claims, "empty.txt", "   ")
	assert.False(t, doc.IsProcessed)

	// 未处理的文档不参与检索
	docs, err := e.docs.Accessible(claims, []uint{doc.ID})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentAccessRules(t *testing.T) {
	e := newEnv(t)
	_, adminClaims := e.register(t, "admin", model.Admin)
	_, alice := e.register(t, "alice", model.Student)
	_, bob := e.register(t, "bob", model.Student)

	shared := e.upload(t, adminClaims, "shared.txt", "course handbook")
	private := e.upload(t, alice, "private.txt", "alice notes")
	require.NotNil(t, shared.AdminID)

	_, err := e.docs.Get(bob, shared.ID)
	assert.NoError(t, err, "students can read admin documents")
	_, err = e.docs.Get(bob, private.ID)
	assert.ErrorIs(t, err, util.ErrDocumentNotFound)
	_, err = e.docs.Get(adminClaims, private.ID)
	assert.NoError(t, err)

	_, err = e.docs.GetForModify(bob, shared.ID)
	assert.ErrorIs(t, err, util.ErrDocumentNotFound)
	_, err = e.docs.GetForModify(alice, private.ID)
	assert.NoError(t, err)

	owned, err := e.docs.ListOwned(OwnerFromClaims(alice))
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "private.txt", owned[0].DocName)

	all, err := e.docs.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteDocumentRemovesChunks(t *testing.T) {
	e := newEnv(t)
	_, claims := e.register(t, "stud", model.Student)
	ctx := context.Background()
	doc := e.upload(t, claims, "bio.txt", photosynthesisText)

	require.NoError(t, e.docs.Delete(ctx, doc))

	_, err := e.docs.Get(claims, doc.ID)
	assert.ErrorIs(t, err, util.ErrDocumentNotFound)
	n, err := e.index.Count(ctx, doc.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = e.docs.Open(ctx, doc)
	assert.Error(t, err)
}

func TestDeleteUserPurgesDocuments(t *testing.T) {
	e := newEnv(t)
	user, claims := e.register(t, "stud", model.Student)
	ctx := context.Background()
	doc := e.upload(t, claims, "bio.txt", photosynthesisText)

	require.NoError(t, e.users.Delete(ctx, user.ID))

	n, err := e.index.Count(ctx, doc.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = e.docs.Open(ctx, doc)
	assert.Error(t, err)

	assert.ErrorIs(t, e.users.Delete(ctx, user.ID), util.ErrUserNotFound)
}

func TestDocumentAndDashboardStats(t *testing.T) {
	e := newEnv(t)
	admin, adminClaims := e.register(t, "admin", model.Admin)
	student, claims := e.register(t, "stud", model.Student)
	e.upload(t, claims, "a.txt", "one two three")
	e.upload(t, claims, "b.txt", "four five")
	e.upload(t, adminClaims, "c.txt", "six")

	stats, err := e.docs.Stats(OwnerFromClaims(claims))
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalDocuments)
	assert.Equal(t, int64(0), stats.PDFFiles)
	assert.Equal(t, int64(2), stats.OtherFiles)
	assert.Equal(t, "22 B", stats.TotalSize)

	test := e.createTest(t, admin.ID, "A", "B")
	_, err = e.tests.Submit(student.ID, SubmitInput{TestID: test.ID, Answers: map[string]string{uintKey(test.Questions[0].ID): "a"}})
	require.NoError(t, err)

	personal, err := e.stats.Personal(OwnerFromClaims(claims))
	require.NoError(t, err)
	assert.Equal(t, int64(1), personal.TestsTaken)
	assert.Equal(t, 50.0, personal.AverageScore)

	dash, err := e.stats.Dashboard()
	require.NoError(t, err)
	assert.Equal(t, int64(2), dash.Users.TotalUsers)
	assert.Equal(t, int64(1), dash.Users.Students)
	assert.Equal(t, int64(1), dash.Users.Admins)
	assert.Equal(t, int64(1), dash.Tests.TotalTests)
	assert.Equal(t, int64(2), dash.Tests.TotalQuestions)
	assert.Equal(t, int64(1), dash.Tests.TotalAttempts)
	assert.Equal(t, int64(3), dash.Documents.TotalDocuments)
	assert.Equal(t, int64(3), dash.Documents.ProcessedDocuments)
	assert.Equal(t, int64(3), dash.Documents.DocumentsByType["txt"])
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, util.ErrAIUnavailable
}

func TestProcessRetryAfterEmbeddingFailure(t *testing.T) {
	e := newEnv(t)
	_, claims := e.register(t, "stud", model.Student)
	ctx := context.Background()

	working := e.docs.Embedder
	e.docs.Embedder = failingEmbedder{}
	doc := e.upload(t, claims, "bio.txt", photosynthesisText)

	stored, err := e.docs.Get(claims, doc.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsProcessed)
	assert.Equal(t, len(strings.Fields(photosynthesisText)), stored.TotalWords)
	n, err := e.index.Count(ctx, doc.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// 模型不可用时重试仍失败
	assert.ErrorIs(t, e.docs.Process(ctx, stored), util.ErrAIUnavailable)

	e.docs.Embedder = working
	require.NoError(t, e.docs.Process(ctx, stored))

	stored, err = e.docs.Get(claims, doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsProcessed)
	n, err = e.index.Count(ctx, doc.ID)
	require.NoError(t, err)
	assert.Greater(t, n, int64(0))
}
