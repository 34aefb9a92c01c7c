package constant

// Keys of values stored in the gin context
const (
	CTX_SESSION    = "session"
	CTX_SESSION_ID = "sessionId"
)

const JWT_TYPE_SESSION = "session"

const CONTENT_TYPE_PDF = "application/pdf"
