package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/volley-tournament/models"
)

func TestPlanArchiveKeepsEveryHashAndLatest(t *testing.T) {
	ctx := context.Background()
	objects := NewMemoryObjects()
	archive := NewPlanArchive(objects, "")

	require.NoError(t, archive.Archive(ctx, &models.SchedulePlan{TournamentID: "t1", Hash: "aaa", Document: []byte(`{"v":1}`)}))
	require.NoError(t, archive.Archive(ctx, &models.SchedulePlan{TournamentID: "t1", Hash: "bbb", Document: []byte(`{"v":2}`)}))

	assert.Equal(t, []string{
		"schedule-plans/t1/aaa.json",
		"schedule-plans/t1/bbb.json",
		"schedule-plans/t1/latest.json",
	}, objects.Keys())

	latest, err := archive.Latest(ctx, "t1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(latest))

	_, err = archive.Latest(ctx, "t2")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestPlanArchiveRejectsIncompletePlan(t *testing.T) {
	archive := NewPlanArchive(NewMemoryObjects(), "plans")
	assert.Error(t, archive.Archive(context.Background(), &models.SchedulePlan{TournamentID: "t1"}))
	assert.Error(t, archive.Archive(context.Background(), nil))
}

func TestCloudflareR2ConfigEnabled(t *testing.T) {
	assert.False(t, CloudflareR2Config{AccountID: "a", AccessKeyID: "k"}.Enabled())
	assert.True(t, CloudflareR2Config{AccountID: "a", AccessKeyID: "k", SecretAccessKey: "s", BucketName: "b"}.Enabled())

	_, err := NewCloudflareR2Store(context.Background(), CloudflareR2Config{})
	assert.Error(t, err)
}
