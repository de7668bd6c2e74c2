package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := HashPassword("admin123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)

	assert.True(t, VerifyPassword(hash, "admin123"))
	assert.False(t, VerifyPassword(hash, "admin124"))
	assert.False(t, VerifyPassword("not-a-hash", "admin123"))
}

func TestHashPassword_InvalidCostFallsBack(t *testing.T) {
	hash, err := HashPassword("pw", 99)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestBurnCompare_UsesConfiguredCost(t *testing.T) {
	for _, cost := range []int{bcrypt.MinCost, bcrypt.MinCost + 1} {
		got, err := bcrypt.Cost(dummyHash(cost))
		require.NoError(t, err)
		assert.Equal(t, cost, got)
	}
	assert.Same(t, &dummyHash(bcrypt.MinCost)[0], &dummyHash(bcrypt.MinCost)[0], "hash is generated once per cost")

	got, err := bcrypt.Cost(dummyHash(99))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, got)

	BurnCompare("anything", bcrypt.MinCost)
}
