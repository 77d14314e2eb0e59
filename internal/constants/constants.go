package constants

const (
	// ContextKeyIdentity is the gin context key holding the resolved auth.Identity.
	ContextKeyIdentity = "identity"
	// ContextKeyTask is the gin context key holding the task loaded by RequireTaskAccess.
	ContextKeyTask = "task"

	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	// Enforced by the client before submission; the server only rejects empty values.
	MinTitleLength       = 3
	MinDescriptionLength = 10
)
