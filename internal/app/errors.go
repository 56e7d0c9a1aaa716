package app

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrForbidden      = errors.New("permission denied")
	ErrMessageEmpty   = errors.New("message content is empty")
	ErrMessageEnqueue = errors.New("message enqueue failed")

	ErrDocumentNotFound     = errors.New("document not found")
	ErrSubjectNotFound      = errors.New("subject not found")
	ErrFacultyNotFound      = errors.New("faculty not found")
	ErrDocumentTypeNotFound = errors.New("document type not found")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file too large")
	ErrInvalidPDF           = errors.New("invalid pdf file")
	ErrInvalidTransition    = errors.New("document status does not allow this action")

	ErrCommentNotFound      = errors.New("comment not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrConversationNotFound = errors.New("conversation not found")
)
