package handlers

const (
	ErrInvalidFormData     = "Invalid form data"
	ErrRequestTooLarge     = "Request too large"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrInternalServerError = "Internal server error"
	ErrSaveFailed          = "Something went wrong while saving. Please try again."

	csrfSeedCookieName = "csrf_seed"

	// maxFormBytes bounds console form bodies
	maxFormBytes = 1 << 20
	// maxBackupBytes bounds an uploaded backup file
	maxBackupBytes = 32 << 20
)
