package util

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// FileExtension 返回小写扩展名（含点）
func FileExtension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

func IsAllowedDocument(name string) bool {
	ext := FileExtension(name)
	for _, allowed := range AllowedDocumentExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// DocumentContentType 根据扩展名返回下载时使用的 Content-Type
func DocumentContentType(fileType string) string {
	switch strings.TrimPrefix(strings.ToLower(fileType), ".") {
	case "pdf":
		return MimePDF
	case "docx":
		return MimeDOCX
	case "doc":
		return MimeDOC
	case "txt":
		return MimeText + "; charset=utf-8"
	default:
		return MimeOctetStream
	}
}

// SniffMimeType 读取前 512 字节探测 MIME 类型
func SniffMimeType(reader io.Reader) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	return http.DetectContentType(buffer[:n]), nil
}

// FormatFileSize 按 B / KB / MB 格式化，保留一位小数
func FormatFileSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	}
}
