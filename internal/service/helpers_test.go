package service

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"smartqa_backend/internal/config"
	"smartqa_backend/internal/model"
	"smartqa_backend/internal/repository"
	"smartqa_backend/internal/util"
	"smartqa_backend/pkg/database/dbtest"
	"smartqa_backend/pkg/vectordb"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const embeddingDims = 32

// fakeAI 模拟 OpenAI 兼容接口
type fakeAI struct {
	mu       sync.Mutex
	reply    func(system, prompt string) string
	prompts  []string
	failChat bool
}

func (f *fakeAI) setReply(fn func(system, prompt string) string) {
	f.mu.Lock()
	f.reply = fn
	f.mu.Unlock()
}

func (f *fakeAI) setFail(fail bool) {
	f.mu.Lock()
	f.failChat = fail
	f.mu.Unlock()
}

func (f *fakeAI) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func fakeEmbedding(text string) []float32 {
	v := make([]float32, embeddingDims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,?!:;\"'()")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%embeddingDims]++
	}
	return v
}

func (f *fakeAI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var system, prompt string
		for _, m := range req.Messages {
			if m.Role == "system" {
				system = m.Content
			} else {
				prompt = m.Content
			}
		}

		f.mu.Lock()
		f.prompts = append(f.prompts, prompt)
		reply, fail := f.reply, f.failChat
		f.mu.Unlock()

		if fail {
			http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
			return
		}
		answer := "generic answer"
		if reply != nil {
			answer = reply(system, prompt)
		}

		if req.Stream {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, part := range strings.SplitAfter(answer, " ") {
				b, _ := json.Marshal(map[string]interface{}{
					"choices": []map[string]interface{}{{"delta": map[string]string{"content": part}}},
				})
				fmt.Fprintf(w, "data: %s\n\n", b)
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"role": "assistant", "content": answer}}},
		})
	})
	mux.HandleFunc("/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req EmbeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data := make([]map[string]interface{}, len(req.Input))
		for i, text := range req.Input {
			data[i] = map[string]interface{}{"index": i, "embedding": fakeEmbedding(text)}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	})
	return mux
}

type env struct {
	db       *gorm.DB
	cfg      *config.Config
	ai       *AIService
	fake     *fakeAI
	index    *vectordb.Store
	auth     *AuthService
	tests    *TestService
	results  *ResultService
	docs     *DocumentService
	qa       *QAService
	users    *UserService
	stats    *StatsService
	proctor  *ProctorService
	userRepo *repository.UserRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()

	fake := &fakeAI{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		JWT:     config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()},
		Upload:  config.UploadConfig{MaxFileSizeMB: 1},
		AI:      config.AIConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model", EmbeddingModel: "test-embed", TimeoutSeconds: 5},
		Vector:  config.VectorConfig{Collection: "test", ChunkSize: 40, ChunkOverlap: 5, TopK: 3},
	}

	db := dbtest.NewDB(t)
	rdb, _ := dbtest.NewRedis(t)

	userRepo := repository.NewUserRepository(db)
	testRepo := repository.NewTestRepository(db)
	resultRepo := repository.NewResultRepository(db)
	docRepo := repository.NewDocumentRepository(db)

	ai := NewAIService(cfg.AI)
	index := vectordb.NewStore(rdb, cfg.Vector.Collection)
	storage := NewStorageService(cfg)

	e := &env{db: db, cfg: cfg, ai: ai, fake: fake, index: index, userRepo: userRepo}
	e.auth = NewAuthService(userRepo, rdb, cfg)
	e.tests = NewTestService(testRepo, resultRepo, ai)
	e.results = NewResultService(resultRepo, e.tests)
	e.docs = NewDocumentService(docRepo, storage, ai, index, cfg)
	e.qa = NewQAService(e.docs, ai, ai, index, repository.NewQAHistoryRepository(db), cfg.Vector.TopK)
	e.users = NewUserService(userRepo, docRepo, e.docs)
	e.stats = NewStatsService(userRepo, testRepo, resultRepo, docRepo)
	e.proctor = NewProctorService(repository.NewProctorRepository(db), e.results)
	return e
}

func (e *env) register(t *testing.T, name string, role model.UserRole) (*model.User, *util.Claims) {
	t.Helper()
	resp, err := e.auth.Register(RegisterInput{
		Username: name, Email: name + "@test.com", Password: "secret123", Role: string(role),
	})
	require.NoError(t, err)
	claims, err := util.ParseJWT(resp.AccessToken, e.cfg.JWT.Secret)
	require.NoError(t, err)
	return resp.User, claims
}

func (e *env) createTest(t *testing.T, adminID uint, answers ...string) *model.Test {
	t.Helper()
	in := CreateTestInput{TestName: "Basics", Topic: "ml", TimeLimitMinutes: 15}
	for i, a := range answers {
		in.Questions = append(in.Questions, QuestionInput{
			QuestionText:  fmt.Sprintf("question %d", i+1),
			Options:       map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
			CorrectAnswer: a,
		})
	}
	test, err := e.tests.Create(adminID, in)
	require.NoError(t, err)
	return test
}

func uintKey(id uint) string {
	return fmt.Sprintf("%d", id)
}
