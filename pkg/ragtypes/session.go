package ragtypes

import "time"

// Turn is one question/answer exchange within a Session.
type Turn struct {
	Question      string         `json:"question"`
	Answer        string         `json:"answer"`
	SourcesForTurn []SearchSource `json:"sourcesForTurn,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// Session is an append-only ordered log of Turns under one sessionId.
type Session struct {
	SessionID string `json:"sessionId"`
	Turns     []Turn `json:"turns"`
}
