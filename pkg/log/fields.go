package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware/auth.go keys)
	FieldUserID = "user_id"
	FieldEmail  = "email"

	// Graph operations
	FieldTargetID = "target_id"

	// Service
	FieldService = "service"

	// Log type (for audit and consistency events)
	FieldLogType       = "log_type"
	LogTypeAudit       = "audit"
	LogTypeConsistency = "consistency"
)
