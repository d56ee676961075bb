package utils

// ContextKey is the type of request-scoped values placed on a context.Context by handlers
type ContextKey string

const (
	RequestIDKey   ContextKey = "request_id"
	UserAgentKey   ContextKey = "user_agent"
	IPAddressKey   ContextKey = "ip_address"
	EndpointKey    ContextKey = "endpoint"
	TimeoutKey     ContextKey = "timeout"
	CurrentUserKey ContextKey = "current_user"
	AdminIDKey     ContextKey = "admin_id"
	AdminTokenKey  ContextKey = "admin_token"
)
