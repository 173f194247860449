package service

import (
	"context"
	"errors"
	"fmt"

	"gymsocial/internal/codec"
	"gymsocial/internal/domain"
	"gymsocial/internal/storage"
	"gymsocial/internal/store"
)

// --- Error Definitions ---
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUploadURLError   = errors.New("failed to generate upload URL")
)

const defaultSearchLimit = 20

// UserService covers profile reads, displayName search, the exercise
// catalog and the profile photo flow.
type UserService interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
	SearchUsers(ctx context.Context, namePrefix string, limit int) ([]domain.User, error)

	ListExercises(ctx context.Context, userID string) ([]domain.Exercise, []domain.CustomExercise, error)
	AddCustomExercise(ctx context.Context, userID string, exercise domain.CustomExercise) (string, error)
	DeleteCustomExercise(ctx context.Context, userID, exerciseID string) error

	// RequestPhotoUploadURL returns a presigned PUT URL for the user's
	// profile image; ConfirmPhoto records the public URL on the user
	// document once the client has uploaded.
	RequestPhotoUploadURL(ctx context.Context, userID, contentType string) (string, error)
	ConfirmPhoto(ctx context.Context, userID, photoURL string) error
}

type userService struct {
	store       store.Store
	fileStorage storage.FileStorage
}

// NewUserService creates a store-backed user service.
func NewUserService(st store.Store, fileStorage storage.FileStorage) UserService {
	return &userService{store: st, fileStorage: fileStorage}
}

func (s *userService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	snap, err := s.store.Get(ctx, usersCollection, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return codec.DecodeUser(snap), nil
}

// SearchUsers finds users whose display name starts with the prefix.
func (s *userService) SearchUsers(ctx context.Context, namePrefix string, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	q := store.Query{
		Collection: usersCollection,
		Limit:      limit,
	}
	if namePrefix != "" {
		q.PrefixField = "displayName"
		q.Prefix = namePrefix
	}
	snapshots, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	users := make([]domain.User, 0, len(snapshots))
	for _, snap := range snapshots {
		users = append(users, codec.DecodeUser(snap))
	}
	return users, nil
}

func customExercisesPath(userID string) string {
	return "users/" + userID + "/customExercises"
}

// ListExercises returns the built-in catalog plus the user's custom
// entries. Undecodable custom entries are skipped.
func (s *userService) ListExercises(ctx context.Context, userID string) ([]domain.Exercise, []domain.CustomExercise, error) {
	if userID == "" {
		return nil, nil, ErrNotAuthenticated
	}
	snapshots, err := s.store.Query(ctx, store.Query{Collection: customExercisesPath(userID)})
	if err != nil {
		return nil, nil, fmt.Errorf("list custom exercises: %w", err)
	}
	var custom []domain.CustomExercise
	for _, snap := range snapshots {
		if e, ok := codec.DecodeCustomExercise(snap); ok {
			custom = append(custom, e)
		}
	}
	return domain.DefaultExercises, custom, nil
}

func (s *userService) AddCustomExercise(ctx context.Context, userID string, exercise domain.CustomExercise) (string, error) {
	if userID == "" {
		return "", ErrNotAuthenticated
	}
	if exercise.Name == "" {
		return "", errors.New("exercise name is required")
	}
	id, err := s.store.Insert(ctx, customExercisesPath(userID), codec.EncodeCustomExercise(exercise))
	if err != nil {
		return "", fmt.Errorf("add custom exercise: %w", err)
	}
	return id, nil
}

func (s *userService) DeleteCustomExercise(ctx context.Context, userID, exerciseID string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	return s.store.Delete(ctx, customExercisesPath(userID), exerciseID)
}

func (s *userService) RequestPhotoUploadURL(ctx context.Context, userID, contentType string) (string, error) {
	if userID == "" {
		return "", ErrNotAuthenticated
	}
	objectKey := storage.ProfileImageKey(userID)
	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", ErrUploadURLError
	}
	return url, nil
}

// ConfirmPhoto merges the uploaded image's URL into the user
// document.
func (s *userService) ConfirmPhoto(ctx context.Context, userID, photoURL string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	if photoURL == "" {
		return errors.New("photo URL is required")
	}
	doc := store.Document{"photoURL": photoURL}
	if err := s.store.Set(ctx, usersCollection, userID, doc, true); err != nil {
		return fmt.Errorf("record photo URL: %w", err)
	}
	return nil
}
