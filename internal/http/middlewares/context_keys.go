package middlewares

const (
	ctxUserIDKey   = "auth.userID"
	ctxEmailKey    = "auth.email"
	ctxNameKey     = "auth.name"
	ctxRoleHintKey = "auth.roleHint"

	CtxRequestID = "request_id"
)
