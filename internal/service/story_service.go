package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"socialhub/internal/domain"
)

// StoryService covers the story interactions the event core handles: views,
// likes and follower fan-out lookup. Uploading is done elsewhere.
type StoryService struct {
	stories domain.StoryRepository
	users   domain.UserRepository
	now     func() time.Time
}

func NewStoryService(stories domain.StoryRepository, users domain.UserRepository) *StoryService {
	return &StoryService{stories: stories, users: users, now: time.Now}
}

// SetClock replaces time.Now; used by tests.
func (s *StoryService) SetClock(now func() time.Time) {
	s.now = now
}

// Get returns a live story. Expired stories are reported as not found.
func (s *StoryService) Get(ctx context.Context, storyID string) (*domain.Story, error) {
	if strings.TrimSpace(storyID) == "" {
		return nil, domain.Invalid("storyId is required")
	}
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("get story: %w", err)
	}
	if story.Expired(s.now()) {
		return nil, fmt.Errorf("story %s expired: %w", storyID, domain.ErrNotFound)
	}
	return story, nil
}

// View records viewerID once. added is false on repeat views.
func (s *StoryService) View(ctx context.Context, storyID, viewerID string) (story *domain.Story, added bool, err error) {
	story, err = s.Get(ctx, storyID)
	if err != nil {
		return nil, false, err
	}
	added, views, err := s.stories.AddView(ctx, story.ID, viewerID, s.now().UTC())
	if err != nil {
		return nil, false, fmt.Errorf("add view: %w", err)
	}
	story.ViewsCount = views
	return story, added, nil
}

// ToggleLike flips likerID's like. liked reports the state after the call.
func (s *StoryService) ToggleLike(ctx context.Context, storyID, likerID string) (story *domain.Story, liked bool, err error) {
	story, err = s.Get(ctx, storyID)
	if err != nil {
		return nil, false, err
	}
	liked, likes, err := s.stories.ToggleLike(ctx, story.ID, likerID, s.now().UTC())
	if err != nil {
		return nil, false, fmt.Errorf("toggle like: %w", err)
	}
	story.LikesCount = likes
	return story, liked, nil
}

// Followers returns who should hear about a new story by authorID.
func (s *StoryService) Followers(ctx context.Context, authorID string) ([]string, error) {
	ids, err := s.users.ListFollowers(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	return ids, nil
}
