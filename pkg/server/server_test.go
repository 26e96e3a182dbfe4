package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/maximthomas/gortas-session/pkg/config"
	"github.com/maximthomas/gortas-session/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionResponse struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

func setupTestRouter(t *testing.T) (*gin.Engine, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	ss, err := session.NewService(session.Config{
		Handler:  session.HandlerRedis,
		SavePath: "tcp://" + mr.Addr(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })
	conf := config.Config{
		Session: ss.Config(),
		Server:  config.Server{Port: 8080, Cors: config.Cors{AllowedOrigins: []string{"http://localhost:3000"}}},
	}
	return SetupRouter(conf, ss), mr
}

func TestSetupRouter(t *testing.T) {
	router, _ := setupTestRouter(t)
	assert.Equal(t, 5, len(router.Routes()))
}

const target = "http://localhost/gortas/v1/session"

func TestSessionFlow(t *testing.T) {
	router, mr := setupTestRouter(t)

	do := func(method, url string, body []byte, cookie string) *httptest.ResponseRecorder {
		var request *http.Request
		if body != nil {
			request = httptest.NewRequest(method, url, bytes.NewBuffer(body))
			request.Header.Set("Content-Type", "application/json")
		} else {
			request = httptest.NewRequest(method, url, nil)
		}
		if cookie != "" {
			request.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: cookie})
		}
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		return recorder
	}
	decode := func(recorder *httptest.ResponseRecorder) sessionResponse {
		var resp sessionResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		return resp
	}

	recorder := do("GET", target, nil, "")
	assert.Equal(t, 200, recorder.Code)
	sessionID, err := getCookieValue(session.DefaultCookieName, recorder.Result().Cookies())
	require.NoError(t, err)
	assert.Equal(t, sessionID, decode(recorder).ID)
	assert.True(t, mr.Exists(session.DefaultKeyPrefix+sessionID))

	t.Run("Test update session", func(t *testing.T) {
		recorder := do("PUT", target, []byte(`{"cart":"3"}`), sessionID)
		assert.Equal(t, 200, recorder.Code)

		recorder = do("GET", target, nil, sessionID)
		resp := decode(recorder)
		assert.Equal(t, sessionID, resp.ID)
		assert.Equal(t, "3", resp.Properties["cart"])
		assert.Contains(t, mustGet(t, mr, session.DefaultKeyPrefix+sessionID), `"cart":"3"`)
	})

	t.Run("Test bad update body", func(t *testing.T) {
		recorder := do("PUT", target, []byte("bad body"), sessionID)
		assert.Equal(t, 400, recorder.Code)
	})

	t.Run("Test regenerate session", func(t *testing.T) {
		recorder := do("POST", target+"/regenerate", nil, sessionID)
		assert.Equal(t, 200, recorder.Code)
		newID, err := getCookieValue(session.DefaultCookieName, recorder.Result().Cookies())
		require.NoError(t, err)
		assert.NotEqual(t, sessionID, newID)
		assert.Equal(t, "3", decode(recorder).Properties["cart"])
		assert.False(t, mr.Exists(session.DefaultKeyPrefix+sessionID))
		sessionID = newID
	})

	t.Run("Test delete session", func(t *testing.T) {
		recorder := do("DELETE", target, nil, sessionID)
		assert.Equal(t, 200, recorder.Code)
		assert.False(t, mr.Exists(session.DefaultKeyPrefix+sessionID))

		recorder = do("GET", target, nil, sessionID)
		assert.NotEqual(t, sessionID, decode(recorder).ID)
	})
}

func TestMetrics(t *testing.T) {
	router, _ := setupTestRouter(t)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", target, nil))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "http://localhost/metrics", nil))
	assert.Equal(t, 200, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "gortas_sessions_started_total")
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}

//helper functions
func getCookieValue(name string, c []*http.Cookie) (string, error) {

	for _, cookie := range c {
		if cookie.Name == name {
			return cookie.Value, nil
		}
	}
	return "", errors.New("cookie not found")
}
