package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/maximthomas/gortas-session/pkg/log"
	"github.com/maximthomas/gortas-session/pkg/session"
	"github.com/sirupsen/logrus"
)

const (
	sessionKey   = "session"
	sessionDirty = "session.dirty"
	sessionGone  = "session.destroyed"
)

// NewSessionMiddleware starts the request session before the handler runs and
// saves it afterwards if the handler changed it
func NewSessionMiddleware(ss *session.Service) gin.HandlerFunc {
	return sessionMiddleware{
		ss:     ss,
		logger: log.WithField("module", "SessionMiddleware"),
	}.build()
}

type sessionMiddleware struct {
	ss     *session.Service
	logger logrus.FieldLogger
}

func (m sessionMiddleware) build() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sessionID := getSessionIDFromRequest(c, m.ss.CookieName())
		sess, err := m.ss.Start(ctx, sessionID)
		if err != nil {
			m.logger.Errorf("error starting session: %v", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
			return
		}
		if sess.ID != sessionID {
			SetSessionCookie(c, m.ss, sess.ID)
		}
		c.Set(sessionKey, sess)

		c.Next()

		if c.GetBool(sessionGone) || !c.GetBool(sessionDirty) {
			return
		}
		sess, _ = GetSession(c)
		if err := m.ss.Save(ctx, sess); err != nil {
			m.logger.Errorf("error saving session %s: %v", sess.ID, err)
		}
	}
}

// GetSession returns the session started for the request
func GetSession(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return session.Session{}, false
	}
	sess, ok := v.(session.Session)
	return sess, ok
}

// SetSession replaces the request session, it is saved when the handler returns
func SetSession(c *gin.Context, sess session.Session) {
	c.Set(sessionKey, sess)
	c.Set(sessionDirty, true)
}

// MarkDestroyed stops the middleware from saving the request session
func MarkDestroyed(c *gin.Context) {
	c.Set(sessionGone, true)
}

func SetSessionCookie(c *gin.Context, ss *session.Service, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ss.CookieName(), id, ss.Config().Expires, "/", "", c.Request.TLS != nil, true)
}

func DeleteSessionCookie(c *gin.Context, ss *session.Service) {
	c.SetCookie(ss.CookieName(), "", -1, "/", "", c.Request.TLS != nil, true)
}

func getSessionIDFromRequest(c *gin.Context, cookieName string) string {
	sessionCookie, err := c.Request.Cookie(cookieName)
	if err == nil && sessionCookie.Value != "" {
		return sessionCookie.Value
	}
	reqToken := c.Request.Header.Get("Authorization")
	splitToken := strings.Split(reqToken, "Bearer ")
	if len(splitToken) == 2 {
		return splitToken[1]
	}

	return ""
}
