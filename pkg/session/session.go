package session

import "time"

// Session struct represents server side state of a single client
type Session struct {
	ID         string            `json:"id,omitempty" bson:"id"`
	CreatedAt  time.Time         `json:"createdat,omitempty" bson:"createdAt"`
	Properties map[string]string `json:"properties,omitempty" bson:"properties"`
}

func (s *Session) Get(key string) string {
	return s.Properties[key]
}

func (s *Session) Set(key, value string) {
	if s.Properties == nil {
		s.Properties = make(map[string]string)
	}
	s.Properties[key] = value
}

func (s *Session) GetUserID() string {
	return s.Get("sub")
}

func (s *Session) SetUserID(userID string) {
	s.Set("sub", userID)
}

func (s *Session) clone() Session {
	c := *s
	if s.Properties != nil {
		c.Properties = make(map[string]string, len(s.Properties))
		for k, v := range s.Properties {
			c.Properties[k] = v
		}
	}
	return c
}

