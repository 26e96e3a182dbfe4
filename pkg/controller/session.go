package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maximthomas/gortas-session/pkg/log"
	"github.com/maximthomas/gortas-session/pkg/middleware"
	"github.com/maximthomas/gortas-session/pkg/session"
	"github.com/sirupsen/logrus"
)

type SessionController struct {
	ss     *session.Service
	logger logrus.FieldLogger
}

func (sc *SessionController) SessionInfo(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		sc.logger.Warn("session not found in the request")
		sc.generateErrorResponse(c)
		return
	}
	c.JSON(http.StatusOK, sessionData(sess))
}

// UpdateSession merges request properties into the session
func (sc *SessionController) UpdateSession(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		sc.generateErrorResponse(c)
		return
	}
	var props map[string]string
	if err := c.ShouldBindJSON(&props); err != nil {
		sc.logger.Warnf("error binding json body %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	for k, v := range props {
		sess.Set(k, v)
	}
	middleware.SetSession(c, sess)
	c.JSON(http.StatusOK, sessionData(sess))
}

func (sc *SessionController) DeleteSession(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		sc.generateErrorResponse(c)
		return
	}
	if err := sc.ss.Destroy(c.Request.Context(), sess.ID); err != nil {
		sc.logger.Errorf("error destroying session %s: %v", sess.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error destroying session"})
		return
	}
	middleware.MarkDestroyed(c)
	middleware.DeleteSessionCookie(c, sc.ss)
	c.JSON(http.StatusOK, gin.H{"status": "destroyed"})
}

// Regenerate issues a new session id, keeping session properties
func (sc *SessionController) Regenerate(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		sc.generateErrorResponse(c)
		return
	}
	newSess, err := sc.ss.Regenerate(c.Request.Context(), sess)
	if err != nil {
		sc.logger.Errorf("error regenerating session %s: %v", sess.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error regenerating session"})
		return
	}
	middleware.SetSession(c, newSess)
	middleware.SetSessionCookie(c, sc.ss, newSess.ID)
	c.JSON(http.StatusOK, sessionData(newSess))
}

func sessionData(sess session.Session) gin.H {
	return gin.H{
		"id":         sess.ID,
		"created":    sess.CreatedAt,
		"properties": sess.Properties,
	}
}

func (sc *SessionController) generateErrorResponse(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"valid": "false"})
}

func NewSessionController(ss *session.Service) *SessionController {
	return &SessionController{
		ss:     ss,
		logger: log.WithField("module", "SessionController"),
	}
}
