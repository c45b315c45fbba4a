package server

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vesaa/homebuilder/internal/project"
)

func TestWorkspacesHandOutCopies(t *testing.T) {
	ws := NewWorkspaces()
	d := project.New("site", "alice", testNow)
	ws.Open(1, d)

	d.ProjectName = "mutated after open"
	got, dirty, err := ws.Get(1)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, "site", got.ProjectName)

	got.ProjectName = "mutated copy"
	again, _, _ := ws.Get(1)
	assert.Equal(t, "site", again.ProjectName)

	_, _, err = ws.Get(2)
	assert.ErrorIs(t, err, ErrNoWorkspace)
}

func TestWorkspacesUpdateIsAllOrNothing(t *testing.T) {
	ws := NewWorkspaces()
	ws.Open(1, project.New("site", "alice", testNow))

	_, err := ws.Update(1, func(d *project.Document) error {
		d.ProjectName = "half done"
		return errors.New("second edit failed")
	})
	require.Error(t, err)
	got, dirty, _ := ws.Get(1)
	assert.Equal(t, "site", got.ProjectName)
	assert.False(t, dirty)

	updated, err := ws.Update(1, func(d *project.Document) error {
		d.ProjectName = "renamed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.ProjectName)
	_, dirty, _ = ws.Get(1)
	assert.True(t, dirty)

	_, err = ws.Update(2, func(*project.Document) error { return nil })
	assert.ErrorIs(t, err, ErrNoWorkspace)
}

func TestWorkspacesMarkSavedIgnoresOtherProject(t *testing.T) {
	ws := NewWorkspaces()
	d := project.New("site", "alice", testNow)
	ws.Open(1, d)
	_, err := ws.Update(1, func(d *project.Document) error { return nil })
	require.NoError(t, err)

	saved, rev, err := ws.Checkout(1)
	require.NoError(t, err)

	assert.False(t, ws.MarkSaved(1, project.New("other", "alice", testNow), rev))
	_, dirty, _ := ws.Get(1)
	assert.True(t, dirty)

	assert.True(t, ws.MarkSaved(1, saved, rev))
	_, dirty, _ = ws.Get(1)
	assert.False(t, dirty)
}

func TestWorkspacesMarkSavedKeepsEditsMadeDuringSave(t *testing.T) {
	ws := NewWorkspaces()
	ws.Open(1, project.New("site", "alice", testNow))

	saving, rev, err := ws.Checkout(1)
	require.NoError(t, err)

	_, err = ws.Update(1, func(d *project.Document) error {
		return project.Apply(d, project.Edit{Op: project.OpSet, Path: "step2.company_name", Value: "Acme"}, testNow)
	})
	require.NoError(t, err)

	later := testNow.Add(time.Minute)
	saving.Touch("bob", later)
	assert.False(t, ws.MarkSaved(1, saving, rev), "a concurrent edit keeps the workspace dirty")

	got, dirty, err := ws.Get(1)
	require.NoError(t, err)
	assert.True(t, dirty)
	assert.Equal(t, "Acme", got.Data.Step2.CompanyName)
	assert.Equal(t, saving.UpdatedAt, got.UpdatedAt, "save stamps are carried over")
	assert.Equal(t, "bob", got.UpdatedBy)

	// Saving the newer revision makes it clean.
	again, rev, err := ws.Checkout(1)
	require.NoError(t, err)
	assert.True(t, ws.MarkSaved(1, again, rev))
	_, dirty, _ = ws.Get(1)
	assert.False(t, dirty)
}

func TestWorkspacesForgetDropsEveryHolder(t *testing.T) {
	ws := NewWorkspaces()
	d := project.New("shared", "alice", testNow)
	other := project.New("other", "carol", testNow)
	ws.Open(1, d)
	ws.Open(2, d)
	ws.Open(3, other)

	ws.Forget(d.ProjectID)

	_, _, err := ws.Get(1)
	assert.ErrorIs(t, err, ErrNoWorkspace)
	_, _, err = ws.Get(2)
	assert.ErrorIs(t, err, ErrNoWorkspace)
	_, _, err = ws.Get(3)
	assert.NoError(t, err)
}
