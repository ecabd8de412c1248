package logging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	// Infrastructure errors
	ErrorCategoryRedis   ErrorCategory = "redis"
	ErrorCategoryKafka   ErrorCategory = "kafka"
	ErrorCategoryNetwork ErrorCategory = "network"
	ErrorCategoryStream  ErrorCategory = "stream"
	ErrorCategoryRPC     ErrorCategory = "rpc"
	ErrorCategoryProxy   ErrorCategory = "proxy"

	// Application errors
	ErrorCategoryValidation    ErrorCategory = "validation"
	ErrorCategoryDecode        ErrorCategory = "decode"
	ErrorCategoryTrading       ErrorCategory = "trading"
	ErrorCategoryConfiguration ErrorCategory = "configuration"

	// System errors
	ErrorCategoryTimeout ErrorCategory = "timeout"
	ErrorCategoryPanic   ErrorCategory = "panic"
	ErrorCategoryUnknown ErrorCategory = "unknown"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"
	ErrorSeverityMedium   ErrorSeverity = "medium"
	ErrorSeverityHigh     ErrorSeverity = "high"
	ErrorSeverityCritical ErrorSeverity = "critical"
)

// CategorizedError represents an error with category and severity
type CategorizedError struct {
	Original    error
	Category    ErrorCategory
	Severity    ErrorSeverity
	Component   string
	Operation   string
	Context     map[string]interface{}
	Recoverable bool
}

// Error implements the error interface
func (ce *CategorizedError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", ce.Category, ce.Severity, ce.Original.Error())
}

// Unwrap returns the original error
func (ce *CategorizedError) Unwrap() error {
	return ce.Original
}

// ErrorCategorizer provides error categorization functionality
type ErrorCategorizer struct {
	logger *Logger
}

// NewErrorCategorizer creates a new error categorizer
func NewErrorCategorizer(logger *Logger) *ErrorCategorizer {
	return &ErrorCategorizer{logger: logger}
}

// CategorizeError categorizes an error based on its content and the component that raised it
func (ec *ErrorCategorizer) CategorizeError(err error, component, operation string, ctx map[string]interface{}) *CategorizedError {
	if err == nil {
		return nil
	}

	var already *CategorizedError
	if errors.As(err, &already) {
		return already
	}

	category, severity, recoverable := ec.analyzeError(err, component)

	return &CategorizedError{
		Original:    err,
		Category:    category,
		Severity:    severity,
		Component:   component,
		Operation:   operation,
		Context:     ctx,
		Recoverable: recoverable,
	}
}

// Report categorizes err and logs it in one step.
func (ec *ErrorCategorizer) Report(err error, component, operation string, ctx map[string]interface{}) {
	ec.LogCategorizedError(ec.CategorizeError(err, component, operation, ctx), "")
}

// LogCategorizedError logs a categorized error with appropriate context
func (ec *ErrorCategorizer) LogCategorizedError(catErr *CategorizedError, traceID string) {
	if catErr == nil {
		return
	}

	fields := map[string]interface{}{
		"error_category":    string(catErr.Category),
		"error_severity":    string(catErr.Severity),
		"error_component":   catErr.Component,
		"error_operation":   catErr.Operation,
		"error_recoverable": catErr.Recoverable,
		"error":             catErr.Original.Error(),
	}
	for k, v := range catErr.Context {
		fields[k] = v
	}

	logger := ec.logger.WithTraceID(traceID)
	switch catErr.Severity {
	case ErrorSeverityLow:
		logger.Warn("Categorized error occurred", fields)
	case ErrorSeverityMedium:
		logger.Error("Categorized error occurred", fields)
	default:
		logger.Error("Critical categorized error occurred", fields)
	}
}

func (ec *ErrorCategorizer) analyzeError(err error, component string) (ErrorCategory, ErrorSeverity, bool) {
	errMsg := strings.ToLower(err.Error())
	component = strings.ToLower(component)

	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(errMsg, "deadline exceeded") {
		return ErrorCategoryTimeout, ErrorSeverityMedium, true
	}

	switch {
	case strings.Contains(component, "redis") || strings.Contains(errMsg, "redis"):
		return ErrorCategoryRedis, redisSeverity(errMsg), true
	case strings.Contains(component, "kafka") || strings.Contains(errMsg, "kafka"):
		return ErrorCategoryKafka, ErrorSeverityLow, true
	case strings.Contains(component, "stream"):
		if strings.Contains(errMsg, "frame") || strings.Contains(errMsg, "decode") {
			return ErrorCategoryDecode, ErrorSeverityLow, false
		}
		return ErrorCategoryStream, ErrorSeverityHigh, true
	case strings.Contains(component, "codec"):
		return ErrorCategoryDecode, ErrorSeverityLow, false
	case strings.Contains(component, "solana") || strings.Contains(component, "nonce"):
		return ErrorCategoryRPC, ErrorSeverityMedium, true
	case strings.Contains(component, "proxy"):
		return ErrorCategoryProxy, ErrorSeverityHigh, true
	}

	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "dial") || strings.Contains(errMsg, "no route to host") {
		return ErrorCategoryNetwork, ErrorSeverityMedium, true
	}
	if strings.Contains(errMsg, "timeout") {
		return ErrorCategoryTimeout, ErrorSeverityMedium, true
	}
	if strings.Contains(errMsg, "invalid") || strings.Contains(errMsg, "validation") ||
		strings.Contains(errMsg, "parse") || strings.Contains(errMsg, "unmarshal") {
		return ErrorCategoryValidation, ErrorSeverityLow, false
	}
	if strings.Contains(errMsg, "panic") || strings.Contains(errMsg, "runtime error") {
		return ErrorCategoryPanic, ErrorSeverityCritical, false
	}
	if strings.Contains(component, "executor") || strings.Contains(component, "maintenance") {
		return ErrorCategoryTrading, ErrorSeverityMedium, true
	}
	if strings.Contains(errMsg, "config") || strings.Contains(errMsg, "environment") {
		return ErrorCategoryConfiguration, ErrorSeverityHigh, false
	}

	return ErrorCategoryUnknown, ErrorSeverityMedium, true
}

func redisSeverity(errMsg string) ErrorSeverity {
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "circuit breaker is open") {
		return ErrorSeverityCritical
	}
	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "connection reset") {
		return ErrorSeverityHigh
	}
	return ErrorSeverityMedium
}
