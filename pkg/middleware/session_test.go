package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/maximthomas/gortas-session/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *session.Service {
	ss, err := session.NewService(session.Config{Handler: session.HandlerMemory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })
	return ss
}

func getCookie(name string, cookies []*http.Cookie) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionMiddleware(t *testing.T) {
	ss := newTestService(t)
	existing, err := ss.Start(context.Background(), "")
	require.NoError(t, err)

	router := gin.New()
	router.Use(NewSessionMiddleware(ss))
	router.GET("/", func(c *gin.Context) {
		sess, ok := GetSession(c)
		assert.True(t, ok)
		c.String(http.StatusOK, sess.ID)
	})
	router.PUT("/", func(c *gin.Context) {
		sess, _ := GetSession(c)
		sess.Set("visited", "yes")
		SetSession(c, sess)
		c.Status(http.StatusNoContent)
	})

	t.Run("Test new session sets cookie", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, 200, recorder.Code)
		cookie := getCookie(session.DefaultCookieName, recorder.Result().Cookies())
		require.NotNil(t, cookie)
		assert.Equal(t, recorder.Body.String(), cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, session.DefaultExpires, cookie.MaxAge)
	})

	t.Run("Test existing session from cookie", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest("GET", "/", nil)
		request.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: existing.ID})
		router.ServeHTTP(recorder, request)
		assert.Equal(t, existing.ID, recorder.Body.String())
		assert.Nil(t, getCookie(session.DefaultCookieName, recorder.Result().Cookies()))
	})

	t.Run("Test changed session is saved", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest("PUT", "/", nil)
		request.Header.Set("Authorization", "Bearer "+existing.ID)
		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusNoContent, recorder.Code)

		saved, err := ss.GetSession(context.Background(), existing.ID)
		assert.NoError(t, err)
		assert.Equal(t, "yes", saved.Get("visited"))
	})

	t.Run("Test unknown session id is replaced", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest("GET", "/", nil)
		request.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "forged"})
		router.ServeHTTP(recorder, request)
		assert.NotEqual(t, "forged", recorder.Body.String())
		cookie := getCookie(session.DefaultCookieName, recorder.Result().Cookies())
		require.NotNil(t, cookie)
		assert.Equal(t, recorder.Body.String(), cookie.Value)
	})
}

func TestSessionMiddleware_StoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	ss, err := session.NewService(session.Config{
		Handler:  session.HandlerRedis,
		SavePath: "tcp://" + mr.Addr() + "?timeout=0.2",
	})
	require.NoError(t, err)
	defer ss.Close()
	mr.Close()

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest("GET", "/", nil)
	NewSessionMiddleware(ss)(c)
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.True(t, c.IsAborted())
	_, ok := GetSession(c)
	assert.False(t, ok)
}

func TestGetSessionFormRequest(t *testing.T) {
	sessID := "c48abbfc-93f9-46d6-b568-5a9d8394a156"
	t.Run("Test get session from cookie", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(recorder)
		c.Request = httptest.NewRequest("GET", "/", nil)
		c.Request.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: sessID})
		assert.Equal(t, sessID, getSessionIDFromRequest(c, session.DefaultCookieName))
	})

	t.Run("Test get session from auth header", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(recorder)
		c.Request = httptest.NewRequest("GET", "/", nil)
		c.Request.Header.Add("Authorization", "Bearer "+sessID)
		assert.Equal(t, sessID, getSessionIDFromRequest(c, session.DefaultCookieName))
	})

	t.Run("Test no session in request", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(recorder)
		c.Request = httptest.NewRequest("GET", "/", nil)
		assert.Empty(t, getSessionIDFromRequest(c, session.DefaultCookieName))
	})
}
