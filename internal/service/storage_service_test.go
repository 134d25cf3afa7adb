package service

import (
	"context"
	"strings"
	"testing"

	"smartqa_backend/internal/config"
	"smartqa_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	s := NewStorageService(&config.Config{Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()}})
	ctx := context.Background()

	key := DocumentKey(7, "Notes.PDF")
	assert.True(t, strings.HasPrefix(key, "documents/7/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	require.NoError(t, s.Upload(ctx, key, strings.NewReader("hello"), 5, util.MimePDF))
	data, err := s.ReadAll(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.ReadAll(ctx, key)
	assert.Error(t, err)
	// 重复删除不报错
	assert.NoError(t, s.Delete(ctx, key))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	s := NewStorageService(&config.Config{Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()}})
	err := s.Upload(context.Background(), "../escape.txt", strings.NewReader("x"), 1, util.MimeText)
	assert.Error(t, err)
}
