package roster

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-suite/attendance-api/internal/facerec"
)

func snapshotFor(group string, ids ...int64) *Snapshot {
	faces := make([]facerec.Encoding, len(ids))
	for i := range ids {
		faces[i] = make(facerec.Encoding, facerec.EncodingSize)
	}
	return &Snapshot{Group: group, Faces: faces, StudentIDs: ids}
}

func TestStoreReplaceAndGet(t *testing.T) {
	store := NewStore()

	assert.Nil(t, store.Get("owner-1"))

	store.Replace("owner-1", snapshotFor("Б10", 1001, 1002))
	snap := store.Get("owner-1")
	require.NotNil(t, snap)
	assert.Equal(t, "Б10", snap.Group)
	assert.Equal(t, []int64{1001, 1002}, snap.StudentIDs)

	// Loading another group replaces the slot wholesale.
	store.Replace("owner-1", snapshotFor("В20", 2001))
	snap = store.Get("owner-1")
	require.NotNil(t, snap)
	assert.Equal(t, "В20", snap.Group)
	assert.Equal(t, []int64{2001}, snap.StudentIDs)
}

func TestStoreIsolatesOwners(t *testing.T) {
	store := NewStore()

	store.Replace("teacher-a", snapshotFor("Б10", 1001))
	store.Replace("teacher-b", snapshotFor("В20", 2001))

	require.NotNil(t, store.Get("teacher-a"))
	require.NotNil(t, store.Get("teacher-b"))
	assert.Equal(t, "Б10", store.Get("teacher-a").Group)
	assert.Equal(t, "В20", store.Get("teacher-b").Group)

	store.Clear("teacher-a")
	assert.Nil(t, store.Get("teacher-a"))
	assert.NotNil(t, store.Get("teacher-b"))
}

func TestSnapshotEmpty(t *testing.T) {
	var nilSnap *Snapshot
	assert.True(t, nilSnap.Empty())
	assert.True(t, (&Snapshot{Group: "Б10"}).Empty())
	assert.False(t, snapshotFor("Б10", 1001).Empty())
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore()
	store.Replace("owner", snapshotFor("Б10", 1001))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Replace("owner", snapshotFor("В20", 2001))
		}()
		go func() {
			defer wg.Done()
			if snap := store.Get("owner"); snap != nil {
				_ = snap.Empty()
			}
		}()
	}
	wg.Wait()

	require.NotNil(t, store.Get("owner"))
}
