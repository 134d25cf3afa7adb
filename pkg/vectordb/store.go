// Package vectordb 基于 Redis 的文档向量集合：每个文本块一个 hash，按文档维护索引集合
package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/go-redis/redis/v8"
)

type Chunk struct {
	DocumentID uint      `json:"document_id"`
	Index      int       `json:"chunk_index"`
	PageNumber int       `json:"page_number"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"-"`
}

type Match struct {
	Chunk
	Score float64 `json:"score"`
}

type Store struct {
	rdb        *redis.Client
	collection string
}

func NewStore(rdb *redis.Client, collection string) *Store {
	if collection == "" {
		collection = "documents"
	}
	return &Store{rdb: rdb, collection: collection}
}

func (s *Store) docKey(docID uint) string {
	return fmt.Sprintf("vector:%s:doc:%d", s.collection, docID)
}

func (s *Store) chunkKey(docID uint, index int) string {
	return fmt.Sprintf("vector:%s:%d:%d", s.collection, docID, index)
}

// Upsert 替换文档的全部文本块
func (s *Store) Upsert(ctx context.Context, docID uint, chunks []Chunk) error {
	if err := s.DeleteDocument(ctx, docID); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	pipe := s.rdb.TxPipeline()
	for _, c := range chunks {
		emb, err := json.Marshal(c.Embedding)
		if err != nil {
			return err
		}
		key := s.chunkKey(docID, c.Index)
		pipe.HSet(ctx, key, map[string]interface{}{
			"document_id": docID,
			"chunk_index": c.Index,
			"page_number": c.PageNumber,
			"text":        c.Text,
			"embedding":   string(emb),
		})
		pipe.SAdd(ctx, s.docKey(docID), key)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) DeleteDocument(ctx context.Context, docID uint) error {
	keys, err := s.rdb.SMembers(ctx, s.docKey(docID)).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	keys = append(keys, s.docKey(docID))
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *Store) Count(ctx context.Context, docID uint) (int64, error) {
	return s.rdb.SCard(ctx, s.docKey(docID)).Result()
}

// Search 只在给定文档内检索，按余弦相似度返回前 k 个
func (s *Store) Search(ctx context.Context, query []float32, docIDs []uint, k int) ([]Match, error) {
	if len(docIDs) == 0 || len(query) == 0 || k <= 0 {
		return nil, nil
	}

	var keys []string
	for _, id := range docIDs {
		members, err := s.rdb.SMembers(ctx, s.docKey(id)).Result()
		if err != nil && err != redis.Nil {
			return nil, err
		}
		keys = append(keys, members...)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGetAll(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	matches := make([]Match, 0, len(cmds))
	for _, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		chunk, err := decodeChunk(fields)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{Chunk: chunk, Score: Cosine(query, chunk.Embedding)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func decodeChunk(fields map[string]string) (Chunk, error) {
	var c Chunk
	docID, _ := strconv.ParseUint(fields["document_id"], 10, 64)
	c.DocumentID = uint(docID)
	c.Index, _ = strconv.Atoi(fields["chunk_index"])
	c.PageNumber, _ = strconv.Atoi(fields["page_number"])
	c.Text = fields["text"]
	if err := json.Unmarshal([]byte(fields["embedding"]), &c.Embedding); err != nil {
		return c, fmt.Errorf("decode embedding: %w", err)
	}
	return c, nil
}

// Cosine 维度不一致或零向量返回 0
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
