package middleware

import (
	"net/http"

	"github.com/SeakMengs/BasicPDF/internal/constant"
	"github.com/SeakMengs/BasicPDF/internal/util"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware requires a session token whose subject is the :sessionId of the route.
func (m Middleware) SessionMiddleware(ctx *gin.Context) {
	token, err := util.ReadBearerToken(ctx)
	if err != nil {
		m.app.Logger.Debugf("Failed to read token: %v", err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err, "unauthorized"), nil)
		return
	}

	claim, err := m.app.JWTService.VerifyJwtToken(token)
	if err != nil {
		m.app.Logger.Debugf("Failed to verify token: %v", err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Invalid token", util.GenerateErrorMessages(err, "unauthorized"), nil)
		return
	}

	if claim.Type != constant.JWT_TYPE_SESSION {
		m.app.Logger.Debugf("Invalid token type: %s", claim.Type)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Invalid session token type", nil, nil)
		return
	}

	sessionID := ctx.Param(constant.CTX_SESSION_ID)
	if claim.SessionID != sessionID {
		util.ResponseFailed(ctx, http.StatusForbidden, "Token does not belong to this session", nil, nil)
		return
	}

	sess, err := m.app.Sessions.Get(sessionID)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, err.Error(), nil, nil)
		return
	}

	ctx.Set(constant.CTX_SESSION_ID, sessionID)
	ctx.Set(constant.CTX_SESSION, sess)
	ctx.Next()
}
