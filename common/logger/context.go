package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, so business context (trial_id, task_id, ...)
// is included in every log statement without threading it through call sites.
type LogFields struct {
	TrialID        *string // Clinical trial identifier
	TaskID         *int64  // Task ID
	NotificationID *int64  // Notification ID
	Domain         *string // Data domain of the imported records (e.g. "LB", "VS")
	Source         *string // Import source (e.g. "EDC")
	Role           *string // Target role of a dispatch or repair sweep
	UserID         *string // Acting user
	Component      string  // Component name (OTel semantic convention style, e.g., "trialwatch.service.dispatcher")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.TrialID != nil {
		result.TrialID = new.TrialID
	}
	if new.TaskID != nil {
		result.TaskID = new.TaskID
	}
	if new.NotificationID != nil {
		result.NotificationID = new.NotificationID
	}
	if new.Domain != nil {
		result.Domain = new.Domain
	}
	if new.Source != nil {
		result.Source = new.Source
	}
	if new.Role != nil {
		result.Role = new.Role
	}
	if new.UserID != nil {
		result.UserID = new.UserID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{TaskID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}
