package errors

var (
	ErrUnknown            = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument    = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrThresholdExceeded  = New(ERR_THRESHOLD_EXCEEDED, "threshold exceeded")
	ErrNotFound           = New(ERR_NOT_FOUND, "not found")
	ErrProcessing         = New(ERR_PROCESSING, "error processing")
	ErrConfiguration      = New(ERR_CONFIGURATION, "configuration error")
	ErrContext            = New(ERR_CONTEXT, "context error")
	ErrContextCanceled    = New(ERR_CONTEXT_CANCELED, "context canceled")
	ErrError              = New(ERR_ERROR, "generic error")
	ErrAlreadyExists      = New(ERR_ALREADY_EXISTS, "already exists")
	ErrInvariant          = New(ERR_INVARIANT, "invariant violated")
	ErrStateless          = New(ERR_STATELESS, "stateless validation failed")
	ErrIllegalTransition  = New(ERR_ILLEGAL_TRANSITION, "illegal spin transition")
	ErrMissingState       = New(ERR_MISSING_STATE, "missing state")
	ErrProcedure          = New(ERR_PROCEDURE, "procedure failed")
	ErrHook               = New(ERR_HOOK, "hook error")
	ErrTerminalState      = New(ERR_TERMINAL_STATE, "no next spin from terminal state")
	ErrConflict           = New(ERR_CONFLICT, "spin conflict")
	ErrMissingDependency  = New(ERR_MISSING_DEPENDENCY, "missing dependency")
	ErrServiceUnavailable = New(ERR_SERVICE_UNAVAILABLE, "service unavailable")
	ErrServiceNotStarted  = New(ERR_SERVICE_NOT_STARTED, "service not started")
	ErrServiceError       = New(ERR_SERVICE_ERROR, "service error")
	ErrStorageUnavailable = New(ERR_STORAGE_UNAVAILABLE, "storage unavailable")
	ErrStorageError       = New(ERR_STORAGE_ERROR, "storage error")
	ErrSerialization      = New(ERR_SERIALIZATION, "serialization error")
	ErrKafka              = New(ERR_KAFKA, "kafka error")
)

// errors initialization functions

func NewUnknownError(message string, params ...interface{}) error {
	return New(ERR_UNKNOWN, message, params...)
}
func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}
func NewThresholdExceededError(message string, params ...interface{}) error {
	return New(ERR_THRESHOLD_EXCEEDED, message, params...)
}
func NewNotFoundError(message string, params ...interface{}) error {
	return New(ERR_NOT_FOUND, message, params...)
}
func NewProcessingError(message string, params ...interface{}) error {
	return New(ERR_PROCESSING, message, params...)
}
func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}
func NewContextError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT, message, params...)
}
func NewContextCanceledError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT_CANCELED, message, params...)
}
func NewError(message string, params ...interface{}) error {
	return New(ERR_ERROR, message, params...)
}
func NewAlreadyExistsError(message string, params ...interface{}) error {
	return New(ERR_ALREADY_EXISTS, message, params...)
}
func NewInvariantError(message string, params ...interface{}) error {
	return New(ERR_INVARIANT, message, params...)
}
func NewStatelessError(message string, params ...interface{}) error {
	return New(ERR_STATELESS, message, params...)
}
func NewIllegalTransitionError(message string, params ...interface{}) error {
	return New(ERR_ILLEGAL_TRANSITION, message, params...)
}
func NewMissingStateError(message string, params ...interface{}) error {
	return New(ERR_MISSING_STATE, message, params...)
}
func NewProcedureError(message string, params ...interface{}) error {
	return New(ERR_PROCEDURE, message, params...)
}
func NewHookError(message string, params ...interface{}) error {
	return New(ERR_HOOK, message, params...)
}
func NewTerminalStateError(message string, params ...interface{}) error {
	return New(ERR_TERMINAL_STATE, message, params...)
}
func NewConflictError(message string, params ...interface{}) error {
	return New(ERR_CONFLICT, message, params...)
}
func NewMissingDependencyError(message string, params ...interface{}) error {
	return New(ERR_MISSING_DEPENDENCY, message, params...)
}
func NewServiceUnavailableError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_UNAVAILABLE, message, params...)
}
func NewServiceNotStartedError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_NOT_STARTED, message, params...)
}
func NewServiceError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_ERROR, message, params...)
}
func NewStorageUnavailableError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_UNAVAILABLE, message, params...)
}
func NewStorageError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_ERROR, message, params...)
}
func NewSerializationError(message string, params ...interface{}) error {
	return New(ERR_SERIALIZATION, message, params...)
}
func NewKafkaError(message string, params ...interface{}) error {
	return New(ERR_KAFKA, message, params...)
}
