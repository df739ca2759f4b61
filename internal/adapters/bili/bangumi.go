package bili

import (
	"context"
	"fmt"
	"strconv"
)

type SeasonType int

const (
	SeasonAnime SeasonType = 1
	SeasonDrama SeasonType = 2

	seasonPageSize = 20
)

type Season struct {
	SeasonID       int64  `json:"season_id"`
	MediaID        int64  `json:"media_id"`
	SeasonType     int    `json:"season_type,omitempty"`
	SeasonTypeName string `json:"season_type_name,omitempty"`
	Title          string `json:"title"`
	Cover          string `json:"cover"`
	TotalCount     int    `json:"total_count,omitempty"`
	Badge          string `json:"badge,omitempty"`
	BadgeType      int    `json:"badge_type,omitempty"`
	URL            string `json:"url,omitempty"`
	FollowStatus   int    `json:"follow_status,omitempty"`
}

// ShowTracking is the followed-season list for one season type.
type ShowTracking struct {
	client *Client
	kind   SeasonType
}

func NewShowTracking(client *Client, kind SeasonType) *ShowTracking {
	return &ShowTracking{client: client, kind: kind}
}

func (s *ShowTracking) Name() string {
	if s.kind == SeasonDrama {
		return "cinema"
	}
	return "bangumi"
}

func (s *ShowTracking) List(ctx context.Context) ([]Season, error) {
	_, mid, err := s.client.self(ctx)
	if err != nil {
		return nil, err
	}

	ep := Endpoint{
		Path: pathBangumiList,
		Query: map[string]string{
			"vmid":          strconv.FormatInt(mid, 10),
			"type":          strconv.Itoa(int(s.kind)),
			"follow_status": "0",
		},
	}
	items, err := Collect(OffsetPages(ctx, s.client, ep, OffsetOptions[Season]{PageSize: seasonPageSize}))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.Name(), err)
	}
	return items, nil
}

func (s *ShowTracking) Apply(ctx context.Context, season Season) error {
	if err := s.client.mutateJSON(ctx, pathBangumiFollow, map[string]any{"season_id": season.SeasonID}); err != nil {
		return fmt.Errorf("follow season %d: %w", season.SeasonID, err)
	}
	return nil
}

func (s *ShowTracking) Remove(ctx context.Context, season Season) error {
	if err := s.client.mutateJSON(ctx, pathBangumiUnfollow, map[string]any{"season_id": season.SeasonID}); err != nil {
		return fmt.Errorf("unfollow season %d: %w", season.SeasonID, err)
	}
	return nil
}

func (s *ShowTracking) Describe(season Season) string {
	return fmt.Sprintf("%s (season %d)", season.Title, season.SeasonID)
}
