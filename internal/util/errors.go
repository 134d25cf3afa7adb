package util

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailRegistered     = errors.New("email already registered")
	ErrUsernameTaken       = errors.New("username already registered")
	ErrInvalidCredentials  = errors.New("incorrect email or password")
	ErrInvalidRole         = errors.New("invalid role, must be 'admin' or 'student'")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrTokenRevoked        = errors.New("token has been revoked")
	ErrTestNotFound        = errors.New("test not found")
	ErrTestNotActive       = errors.New("test is not active")
	ErrResultNotFound      = errors.New("result not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrDuplicateDocument   = errors.New("document with this name already uploaded, please rename or delete the existing one")
	ErrUnsupportedFileType = errors.New("file type not allowed")
	ErrFileTooLarge        = errors.New("file too large")
	ErrDocumentEmpty       = errors.New("no text could be extracted from the document")
	ErrDocumentUnprocessed = errors.New("document has not been processed yet")
	ErrAIUnavailable       = errors.New("AI service is not configured")
	ErrInvalidInput        = errors.New("invalid input")
)
