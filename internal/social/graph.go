// Package social maintains the follow graph: existence-style edge
// documents under users/{id}/following and users/{id}/followers.
package social

import (
	"context"
	"errors"
	"fmt"

	"gymsocial/internal/store"
)

// --- Error Definitions ---
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSelfFollow       = errors.New("cannot follow yourself")
)

// Gateway is the follow/unfollow surface the aggregators and API
// consume.
type Gateway interface {
	Follow(ctx context.Context, currentUID, targetUID string) error
	Unfollow(ctx context.Context, currentUID, targetUID string) error
	IsFollowing(ctx context.Context, currentUID, targetUID string) (bool, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
	FollowerIDs(ctx context.Context, userID string) ([]string, error)
}

type graphService struct {
	store store.Store
}

// NewService creates a store-backed follow graph gateway.
func NewService(st store.Store) Gateway {
	return &graphService{store: st}
}

func followingPath(userID string) string { return "users/" + userID + "/following" }
func followersPath(userID string) string { return "users/" + userID + "/followers" }

// Follow records the relationship on both sides. The write is not
// transactional across the two edge documents; a partial failure
// leaves a dangling edge that the next Follow or Unfollow repairs
// (last writer wins, per the backend's model).
func (s *graphService) Follow(ctx context.Context, currentUID, targetUID string) error {
	if currentUID == "" {
		return ErrNotAuthenticated
	}
	if currentUID == targetUID {
		return ErrSelfFollow
	}
	if err := s.store.Set(ctx, followingPath(currentUID), targetUID, store.Document{}, true); err != nil {
		return fmt.Errorf("write following edge: %w", err)
	}
	if err := s.store.Set(ctx, followersPath(targetUID), currentUID, store.Document{}, true); err != nil {
		return fmt.Errorf("write follower edge: %w", err)
	}
	return nil
}

func (s *graphService) Unfollow(ctx context.Context, currentUID, targetUID string) error {
	if currentUID == "" {
		return ErrNotAuthenticated
	}
	if err := s.store.Delete(ctx, followingPath(currentUID), targetUID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete following edge: %w", err)
	}
	if err := s.store.Delete(ctx, followersPath(targetUID), currentUID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete follower edge: %w", err)
	}
	return nil
}

func (s *graphService) IsFollowing(ctx context.Context, currentUID, targetUID string) (bool, error) {
	if currentUID == "" {
		return false, nil
	}
	_, err := s.store.Get(ctx, followingPath(currentUID), targetUID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *graphService) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return s.edgeIDs(ctx, followingPath(userID))
}

func (s *graphService) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return s.edgeIDs(ctx, followersPath(userID))
}

func (s *graphService) edgeIDs(ctx context.Context, path string) ([]string, error) {
	snapshots, err := s.store.Query(ctx, store.Query{Collection: path})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(snapshots))
	for _, snap := range snapshots {
		ids = append(ids, snap.ID)
	}
	return ids, nil
}
