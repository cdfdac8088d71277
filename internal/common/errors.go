package common

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id '%s' not found", e.Resource, e.ID)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError indicates invalid input data.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// ConfigurationError indicates a request that cannot begin processing:
// an unrecognized notification type, a type not configured for the user,
// or an unsupported channel kind.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{Message: message}
}

// UnauthorizedError indicates missing or invalid authentication.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return e.Message
}

// NewUnauthorizedError creates a new UnauthorizedError.
func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

// TransportError indicates an external channel transport failure.
type TransportError struct {
	Transport string
	Message   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error: %s", e.Transport, e.Message)
}

// NewTransportError creates a new TransportError.
func NewTransportError(transport, message string) *TransportError {
	return &TransportError{Transport: transport, Message: message}
}
