package errors

const (
	RequestParameterInvalid int = 4001
	RequestDataExists       int = 4002
	RequestDataNotExisted   int = 4004
	InvalidOperation        int = 4016

	InternalError     int = 5000
	InvalidDataError  int = 5001
	CodeDatabaseError     = 5002
	CodeConflictError     = 5004

	CodeStorageError int = 6001
	CodeRenderError  int = 6004

	CodeInitializeError = 7001
	CodeLackOfConfig    = 7002

	CodeValidationError = 8003
)
