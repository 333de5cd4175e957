package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidCredentials indicates wrong email/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates the AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrUnsupportedFileType indicates an uploaded document has a disallowed MIME type
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrInvalidChunkConfig indicates overlap is not in [0, maxSize)
	ErrInvalidChunkConfig = errors.New("invalid chunk config")

	// ErrEmbeddingSizeMismatch indicates the provider returned a different
	// number of vectors than inputs sent
	ErrEmbeddingSizeMismatch = errors.New("embedding response size mismatch")

	// ErrIngestionInProgress indicates another ingestion holds the model's lock
	ErrIngestionInProgress = errors.New("ingestion already in progress")
)
