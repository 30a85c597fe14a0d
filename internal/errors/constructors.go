package errors

// Convenience constructors for the common categories.

// NewConfigError creates a fatal configuration error.
func NewConfigError(message string, cause error) *BuildError {
	return &BuildError{
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  message,
		Cause:    cause,
	}
}

// NewValidationError creates a fatal input-validation error.
func NewValidationError(message string, cause error) *BuildError {
	return &BuildError{
		Category: CategoryValidation,
		Severity: SeverityFatal,
		Message:  message,
		Cause:    cause,
	}
}

// NewCompileError creates a per-run compile error (one or more figures failed).
func NewCompileError(message string, cause error) *BuildError {
	return &BuildError{
		Category: CategoryCompile,
		Severity: SeverityError,
		Message:  message,
		Cause:    cause,
	}
}

// NewFileSystemError creates an error for filesystem operations outside compilation.
func NewFileSystemError(message string, cause error) *BuildError {
	return &BuildError{
		Category: CategoryFileSystem,
		Severity: SeverityError,
		Message:  message,
		Cause:    cause,
	}
}
