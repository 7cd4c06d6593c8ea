package model

import (
	"context"
	"fmt"
)

// Step is the position of a conversation in the movie night flow.
type Step string

const (
	StepNone                Step = ""
	StepSelectFriends       Step = "select_friends"
	StepFetchMovies         Step = "fetch_movies"
	StepSelectGenre         Step = "select_genre"
	StepSelectMood          Step = "select_mood"
	StepQueryRecommendation Step = "query_recommendation"
)

func (s Step) String() string {
	if s == StepNone {
		return "uninitialized"
	}
	return string(s)
}

// Movie is a saved movie as returned by the data service.
type Movie struct {
	Title string `json:"title"`
	Genre string `json:"genre"`
}

// ConversationState is the per (user, session) flow state kept in the session store.
type ConversationState struct {
	Step       Step     `json:"step"`
	Friends    []string `json:"friends"`
	Movies     []Movie  `json:"movies"`
	MovieNames []string `json:"movie_names"`
	Genres     []string `json:"genres"`
	Genre      string   `json:"genre,omitempty"`
	Mood       string   `json:"mood,omitempty"`
}

// Clone returns a deep copy so nodes never mutate the loaded state in place.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	c := *s
	c.Friends = append([]string(nil), s.Friends...)
	c.Movies = append([]Movie(nil), s.Movies...)
	c.MovieNames = append([]string(nil), s.MovieNames...)
	c.Genres = append([]string(nil), s.Genres...)
	return &c
}

// SessionRepository stores ConversationState server-side, keyed by (user, session).
type SessionRepository interface {
	// Get returns the stored state, or nil without error when none exists.
	Get(ctx context.Context, userID, sessionID string) (*ConversationState, error)

	// Put stores the state and refreshes its expiry.
	Put(ctx context.Context, userID, sessionID string, state *ConversationState) error

	// Clear removes the state for the session.
	Clear(ctx context.Context, userID, sessionID string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// ConversationKey identifies a conversation in logs and storage keys.
func ConversationKey(userID, sessionID string) string {
	return fmt.Sprintf("%s:%s", userID, sessionID)
}
