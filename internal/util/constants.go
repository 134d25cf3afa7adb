package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 文档上传
const (
	MimePDF         = "application/pdf"
	MimeDOCX        = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC         = "application/msword"
	MimeText        = "text/plain"
	MimeOctetStream = "application/octet-stream"
)

var AllowedDocumentExtensions = []string{".pdf", ".docx", ".doc", ".txt"}

// 问答时送入模型的文档正文上限
const MaxPromptDocumentChars = 8000

const (
	SourceDocument = "document"
	SourceAI       = "ai"

	DocumentConfidence = 0.9
	AIConfidence       = 0.7
)

const DefaultErrorMessage = "Something went wrong. Please try again."
