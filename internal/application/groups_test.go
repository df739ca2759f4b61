package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/bilibackup/internal/domain"
)

func groupedEntries() []entry {
	items := entries(3)
	items[0].Groups = []domain.GroupTag{{ID: 1, Name: "music"}}
	items[1].Groups = []domain.GroupTag{{ID: 2, Name: "games"}, {ID: 1, Name: "music"}}
	return items
}

func TestRestoreRemapsGroupsByName(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSyncer(testSession)
	d := newGroupedDomain(domain.GroupTag{ID: 55, Name: "music"})

	outcome, err := Restore(context.Background(), s, d, groupedEntries(), domain.DefaultRestoreOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.SuccessCount)
	assert.Equal(t, []string{"games"}, outcome.CreatedGroups)
	assert.Equal(t, []int64{55}, d.assigned[1])
	assert.Equal(t, []int64{1001, 55}, d.assigned[2])
	assert.NotContains(t, d.assigned, 3)
}

func TestGroupMappingIsIdempotent(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSyncer(testSession)
	d := newGroupedDomain(domain.GroupTag{ID: 55, Name: "music"})

	first, err := Restore(context.Background(), s, d, groupedEntries(), domain.DefaultRestoreOptions())
	require.NoError(t, err)
	require.Len(t, first.CreatedGroups, 1)

	second, err := Restore(context.Background(), s, d, groupedEntries(), domain.DefaultRestoreOptions())
	require.NoError(t, err)

	assert.Empty(t, second.CreatedGroups)
	assert.Equal(t, []string{"games"}, d.created)
	assert.Len(t, d.groups, 2)
}

func TestGroupCreateFailureLeavesItemsRestorable(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSyncer(testSession)
	d := newGroupedDomain()
	d.createErr = map[string]error{"games": errors.New("tag limit")}

	outcome, err := Restore(context.Background(), s, d, groupedEntries(), domain.DefaultRestoreOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.SuccessCount)
	assert.Equal(t, []string{"music"}, outcome.CreatedGroups)
	assert.Equal(t, []int64{1001}, d.assigned[2])
}

func TestAssignFailureDoesNotFailItem(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSyncer(testSession)
	d := newGroupedDomain()
	d.assignErr = errors.New("assign rejected")

	outcome, err := Restore(context.Background(), s, d, groupedEntries(), domain.DefaultRestoreOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.SuccessCount)
	assert.Zero(t, outcome.FailedCount)
}

func TestRestoreWithoutGroupsSkipsMapping(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSyncer(testSession)
	d := newGroupedDomain()

	outcome, err := Restore(context.Background(), s, d, entries(2), domain.DefaultRestoreOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.SuccessCount)
	assert.Empty(t, outcome.CreatedGroups)
	assert.Empty(t, d.created)
}

func TestRestoreWithoutGroupCreationMatchesExistingOnly(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSyncer(testSession)
	d := newGroupedDomain(domain.GroupTag{ID: 55, Name: "music"})
	opts := domain.DefaultRestoreOptions()
	opts.SkipGroupCreation = true

	outcome, err := Restore(context.Background(), s, d, groupedEntries(), opts)
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.SuccessCount)
	assert.Empty(t, outcome.CreatedGroups)
	assert.Empty(t, d.created)
	assert.Equal(t, []int64{55}, d.assigned[1])
	assert.Equal(t, []int64{55}, d.assigned[2])
}
