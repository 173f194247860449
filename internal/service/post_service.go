package service

import (
	"context"
	"errors"
	"fmt"

	"gymsocial/internal/codec"
	"gymsocial/internal/domain"
	"gymsocial/internal/store"

	log "github.com/sirupsen/logrus"
)

// --- Error Definitions ---
var (
	ErrPostNotFound = errors.New("post not found")
)

const postsCollection = "posts"

// PostService creates and reads workout posts. It is the write path
// the session machine publishes through.
type PostService interface {
	CreateWorkoutPost(ctx context.Context, authorID, title, description string, w domain.WorkoutPayload) (string, error)
	GetPost(ctx context.Context, postID string) (domain.Post, error)
}

type postService struct {
	store store.Store
}

// NewPostService creates a store-backed post service.
func NewPostService(st store.Store) PostService {
	return &postService{store: st}
}

// CreateWorkoutPost resolves the author's display name and writes the
// post document. The post's timestamp is assigned by the store.
func (s *postService) CreateWorkoutPost(ctx context.Context, authorID, title, description string, w domain.WorkoutPayload) (string, error) {
	if authorID == "" {
		return "", errors.New("author id is required")
	}
	if title == "" {
		return "", errors.New("title is required")
	}

	authorName := "Unknown"
	if snap, err := s.store.Get(ctx, usersCollection, authorID); err == nil {
		if user := codec.DecodeUser(snap); user.DisplayName != "" {
			authorName = user.DisplayName
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("resolve author name: %w", err)
	}

	doc := codec.EncodeWorkoutPost(authorID, authorName, title, description, w)
	id, err := s.store.Insert(ctx, postsCollection, doc)
	if err != nil {
		return "", fmt.Errorf("insert post: %w", err)
	}
	log.Debugf("workout post %s created for author %s", id, authorID)
	return id, nil
}

// GetPost fetches and decodes one post (detail view).
func (s *postService) GetPost(ctx context.Context, postID string) (domain.Post, error) {
	snap, err := s.store.Get(ctx, postsCollection, postID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Post{}, ErrPostNotFound
	}
	if err != nil {
		return domain.Post{}, err
	}
	post, ok := codec.DecodePost(snap)
	if !ok {
		// Stored but undecodable; reads treat it the same as absent.
		return domain.Post{}, ErrPostNotFound
	}
	return post, nil
}
