package store

import (
	"context"
	"testing"

	"github.com/Zesty080/NFT-Whitelist/sale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *BadgerStore {
	bs, err := OpenBadger(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { bs.Close() })
	return bs
}

func TestAvatarCommitAndRead(t *testing.T) {
	bs := testStore(t)

	rec, err := bs.ReadAvatar(1)
	require.NoError(t, err)
	assert.Nil(t, rec)

	recs := []*sale.AvatarRecord{
		{ID: 1, TraitID: 42},
		{ID: 2, TraitID: 7},
	}
	require.NoError(t, bs.CommitIssuance(recs, true))

	rec, err = bs.ReadAvatar(1)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(42), rec.TraitID)
	assert.False(t, rec.Staked)

	sequence, presaleIssued, err := bs.ReadCounters()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), sequence)
	assert.Equal(t, uint64(2), presaleIssued)

	// a public commit moves only the sequence
	require.NoError(t, bs.CommitIssuance([]*sale.AvatarRecord{{ID: 3, TraitID: 9}}, false))
	sequence, presaleIssued, err = bs.ReadCounters()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), sequence)
	assert.Equal(t, uint64(2), presaleIssued)
}

func TestAvatarStakedWrite(t *testing.T) {
	bs := testStore(t)
	require.NoError(t, bs.CommitIssuance([]*sale.AvatarRecord{{ID: 1, TraitID: 5}}, false))

	rec, err := bs.ReadAvatar(1)
	require.NoError(t, err)
	rec.Staked = true
	require.NoError(t, bs.WriteAvatar(rec))

	rec, err = bs.ReadAvatar(1)
	require.NoError(t, err)
	assert.True(t, rec.Staked)
	assert.Equal(t, uint64(5), rec.TraitID)
}

func TestListAvatars(t *testing.T) {
	bs := testStore(t)
	recs, err := bs.ListAvatars(0)
	require.NoError(t, err)
	assert.Empty(t, recs)

	var batch []*sale.AvatarRecord
	for id := uint64(1); id <= 5; id += 1 {
		batch = append(batch, &sale.AvatarRecord{ID: id, TraitID: 100 + id})
	}
	require.NoError(t, bs.CommitIssuance(batch, false))

	recs, err = bs.ListAvatars(0)
	require.NoError(t, err)
	require.Len(t, recs, 5)
	for i, rec := range recs {
		assert.Equal(t, uint64(i+1), rec.ID)
	}

	recs, err = bs.ListAvatars(3)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}
