package folders

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghive/ghive/internal/drive"
)

// folderLister serves folders in pages of pageSize, counting calls and
// recording the query it was given. gate, when set, blocks the first call
// until closed.
type folderLister struct {
	folders  []drive.File
	pageSize int
	err      error
	gate     chan struct{}

	calls   atomic.Int32
	mu      sync.Mutex
	queries []drive.ListQuery
}

func (l *folderLister) ListFiles(_ context.Context, q drive.ListQuery, pageToken string) (*drive.FileList, error) {
	if l.calls.Add(1) == 1 && l.gate != nil {
		<-l.gate
	}

	l.mu.Lock()
	l.queries = append(l.queries, q)
	l.mu.Unlock()

	if l.err != nil {
		return nil, l.err
	}

	size := l.pageSize
	if size == 0 {
		size = len(l.folders) + 1
	}

	start := 0
	if pageToken != "" {
		start, _ = strconv.Atoi(pageToken)
	}

	end := min(start+size, len(l.folders))

	list := &drive.FileList{Files: l.folders[start:end]}
	if end < len(l.folders) {
		list.NextPageToken = strconv.Itoa(end)
	}

	return list, nil
}

func scenarioAFolders() []drive.File {
	return []drive.File{
		folder("F2", "F1"),
		folder("F3", "F2"),
		folder("X1", "elsewhere"),
	}
}

func TestResolver_ScenarioA(t *testing.T) {
	lister := &folderLister{folders: scenarioAFolders(), pageSize: 2}
	r := NewResolver(lister, []string{"F1"}, nil)

	allowed, err := r.Allowed(context.Background())
	require.NoError(t, err)

	assert.Equal(t, NewFolderSet("F1", "F2", "F3"), allowed)
	assert.Equal(t, int32(2), lister.calls.Load())
}

func TestResolver_UsesFolderQuery(t *testing.T) {
	lister := &folderLister{folders: scenarioAFolders()}
	r := NewResolver(lister, []string{"F1"}, nil)

	_, err := r.Allowed(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, lister.queries)
	assert.Equal(t, "trashed = false and mimeType = 'application/vnd.google-apps.folder'", lister.queries[0].Q)
	assert.Equal(t, "files(id, parents)", lister.queries[0].Fields)
}

func TestResolver_EmptyRootsSkipsListing(t *testing.T) {
	lister := &folderLister{folders: scenarioAFolders()}
	r := NewResolver(lister, nil, nil)

	allowed, err := r.Allowed(context.Background())
	require.NoError(t, err)

	assert.True(t, allowed.Unrestricted())
	assert.Equal(t, int32(0), lister.calls.Load())

	// Blank ids are not roots either.
	r = NewResolver(lister, []string{"", ""}, nil)
	allowed, err = r.Allowed(context.Background())
	require.NoError(t, err)
	assert.True(t, allowed.Unrestricted())
	assert.Equal(t, int32(0), lister.calls.Load())
}

func TestResolver_Memoized(t *testing.T) {
	lister := &folderLister{folders: scenarioAFolders()}
	r := NewResolver(lister, []string{"F1"}, nil)

	first, err := r.Allowed(context.Background())
	require.NoError(t, err)

	for range 5 {
		again, err := r.Allowed(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	assert.Equal(t, int32(1), lister.calls.Load())
}

func TestResolver_ConcurrentCallersShareBuild(t *testing.T) {
	gate := make(chan struct{})
	lister := &folderLister{folders: scenarioAFolders(), gate: gate}
	r := NewResolver(lister, []string{"F1"}, nil)

	const callers = 8

	var (
		wg      sync.WaitGroup
		results = make([]FolderSet, callers)
		errs    = make([]error, callers)
		started sync.WaitGroup
	)

	started.Add(callers)

	for i := range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			started.Done()
			results[i], errs[i] = r.Allowed(context.Background())
		}()
	}

	started.Wait()
	close(gate)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, NewFolderSet("F1", "F2", "F3"), results[i])
	}

	assert.Equal(t, int32(1), lister.calls.Load())
}

func TestResolver_FailureNotCached(t *testing.T) {
	lister := &folderLister{folders: scenarioAFolders(), err: errors.New("list failed")}
	r := NewResolver(lister, []string{"F1"}, nil)

	_, err := r.Allowed(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing folders")

	lister.err = nil

	allowed, err := r.Allowed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NewFolderSet("F1", "F2", "F3"), allowed)
	assert.Equal(t, int32(2), lister.calls.Load())
}

func TestResolver_DeduplicatesRoots(t *testing.T) {
	r := NewResolver(&folderLister{}, []string{"A", "B", "A", ""}, nil)
	assert.Equal(t, []string{"A", "B"}, r.roots)
}
