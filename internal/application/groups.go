package application

import (
	"context"
	"log/slog"

	"github.com/bnema/bilibackup/internal/domain"
)

// mapGroups resolves every source group to a destination group id by name.
// With create set, groups the destination lacks are created; otherwise they
// stay unmapped. A group that cannot be created is logged and left unmapped.
func mapGroups[T any](
	ctx context.Context,
	s *Syncer,
	g Grouper[T],
	items []T,
	create bool,
	delay *domain.DelayRange,
	logger *slog.Logger,
) (map[int64]int64, []string, error) {
	mapping := map[int64]int64{}

	var wanted []domain.GroupTag
	seen := map[int64]bool{}
	for _, item := range items {
		for _, tag := range g.GroupsOf(item) {
			if tag.Name == "" || seen[tag.ID] {
				continue
			}
			seen[tag.ID] = true
			wanted = append(wanted, tag)
		}
	}
	if len(wanted) == 0 {
		return mapping, nil, nil
	}

	existing, err := g.Groups(ctx)
	if err != nil {
		return nil, nil, err
	}
	byName := make(map[string]int64, len(existing))
	for _, tag := range existing {
		if _, ok := byName[tag.Name]; !ok {
			byName[tag.Name] = tag.ID
		}
	}

	var created []string
	for _, tag := range wanted {
		if id, ok := byName[tag.Name]; ok {
			mapping[tag.ID] = id
			continue
		}
		if !create {
			logger.Debug("group missing on destination", "group", tag.Name)
			continue
		}

		newTag, err := g.CreateGroup(ctx, tag.Name)
		if err != nil {
			logger.Warn("create group failed", "group", tag.Name, "error", err)
			continue
		}
		byName[tag.Name] = newTag.ID
		mapping[tag.ID] = newTag.ID
		created = append(created, tag.Name)
		logger.Debug("group created", "group", tag.Name, "id", newTag.ID)

		if err := s.pace(ctx, delay); err != nil {
			return nil, nil, err
		}
	}
	return mapping, created, nil
}

// assignGroups is best effort: a failure is logged, the item stays restored.
func assignGroups[T any](
	ctx context.Context,
	g Grouper[T],
	item T,
	mapping map[int64]int64,
	description string,
	logger *slog.Logger,
) {
	var ids []int64
	seen := map[int64]bool{}
	for _, tag := range g.GroupsOf(item) {
		id, ok := mapping[tag.ID]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return
	}

	if err := g.Assign(ctx, item, ids); err != nil {
		logger.Warn("assign groups failed", "item", description, "error", err)
	}
}
