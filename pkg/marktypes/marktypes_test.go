package marktypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCode(t *testing.T) {
	t.Run("resolves offchain codes", func(t *testing.T) {
		got, err := FromCode(1, false)
		require.NoError(t, err)
		assert.Equal(t, OffchainRelation, got)

		got, err = FromCode(2, false)
		require.NoError(t, err)
		assert.Equal(t, OffchainBusinessFeedback, got)
	})

	t.Run("resolves onchain codes", func(t *testing.T) {
		got, err := FromCode(1, true)
		require.NoError(t, err)
		assert.Equal(t, OnchainTrust, got)
	})

	t.Run("rejects the unspecified code", func(t *testing.T) {
		_, err := FromCode(0, false)
		assert.Error(t, err)
		_, err = FromCode(0, true)
		assert.Error(t, err)
	})

	t.Run("rejects codes from the other namespace", func(t *testing.T) {
		_, err := FromCode(2, true)
		assert.Error(t, err)
	})
}

func TestCode(t *testing.T) {
	t.Run("round-trips with FromCode", func(t *testing.T) {
		for _, tc := range []struct {
			typ     Type
			onchain bool
			want    int32
		}{
			{OffchainRelation, false, 1},
			{OffchainBusinessFeedback, false, 2},
			{OnchainTrust, true, 1},
		} {
			code, err := Code(tc.typ, tc.onchain)
			require.NoError(t, err)
			assert.Equal(t, tc.want, code)

			back, err := FromCode(code, tc.onchain)
			require.NoError(t, err)
			assert.Equal(t, tc.typ, back)
		}
	})

	t.Run("rejects a type outside its namespace", func(t *testing.T) {
		_, err := Code(OnchainTrust, false)
		assert.Error(t, err)
		_, err = Code(OffchainRelation, true)
		assert.Error(t, err)
	})
}

func TestParse(t *testing.T) {
	t.Run("accepts names in their namespace", func(t *testing.T) {
		got, err := Parse("RelationMark", false)
		require.NoError(t, err)
		assert.Equal(t, OffchainRelation, got)

		got, err = Parse("TrustMark", true)
		require.NoError(t, err)
		assert.Equal(t, OnchainTrust, got)
	})

	t.Run("rejects unknown and cross-namespace names", func(t *testing.T) {
		_, err := Parse("FriendMark", false)
		assert.Error(t, err)
		_, err = Parse("TrustMark", false)
		assert.Error(t, err)
		_, err = Parse("RelationMark", true)
		assert.Error(t, err)
	})
}

func TestValidFor(t *testing.T) {
	assert.True(t, OffchainRelation.ValidFor(false))
	assert.False(t, OffchainRelation.ValidFor(true))
	assert.True(t, OnchainTrust.ValidFor(true))
	assert.False(t, Type("").ValidFor(false))
}
