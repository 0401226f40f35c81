package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperties(t *testing.T) {
	bs := testStore(t)

	val, err := bs.ReadProperty([]byte("PROPS:A"))
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, bs.WriteProperty([]byte("PROPS:A"), []byte{1}))
	require.NoError(t, bs.WriteProperty([]byte("PROPS:B"), []byte{2}))
	require.NoError(t, bs.WriteProperty([]byte("OTHER:C"), []byte{3}))

	val, err = bs.ReadProperty([]byte("PROPS:B"))
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, val)

	keys, err := bs.ListPropertyKeys([]byte("PROPS:"))
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]byte{[]byte("PROPS:A"), []byte("PROPS:B")}, keys)

	require.NoError(t, bs.DeleteProperty([]byte("PROPS:A")))
	val, err = bs.ReadProperty([]byte("PROPS:A"))
	require.NoError(t, err)
	assert.Nil(t, val)
	keys, err = bs.ListPropertyKeys([]byte("PROPS:"))
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]byte{[]byte("PROPS:B")}, keys)

	// deleting an absent key is a no-op
	require.NoError(t, bs.DeleteProperty([]byte("PROPS:A")))
}
