package model

import "context"

// FriendDirectory returns the friend list of a user.
type FriendDirectory interface {
	Friends(ctx context.Context, userID string) ([]string, error)
}

// SharedMedia returns the union of movies saved by any of the given friends.
type SharedMedia interface {
	SavedMovies(ctx context.Context, userID string, friendIDs []string) ([]Movie, error)
}

// Recommender produces one free-text recommendation chosen only from req.Candidates.
type Recommender interface {
	Recommend(ctx context.Context, req RecommendationRequest) (string, error)
}

type RecommendationRequest struct {
	Genre      string
	Mood       string
	Candidates []Movie
}
