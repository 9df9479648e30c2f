package relay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/relay"
)

func TestEnvelopeHash_FieldSensitivity(t *testing.T) {
	signer := newTestSigner(t)
	data := mustEncode(t, "register", []any{signer.address.Hex()})

	env := envelopeFor(t, signer, 0, data)
	base, err := relay.EnvelopeHash(testDomain, env)
	require.NoError(t, err)

	same, err := relay.EnvelopeHash(testDomain, envelopeFor(t, signer, 0, data))
	require.NoError(t, err)
	assert.Equal(t, base, same)

	bumped := envelopeFor(t, signer, 1, data)
	different, err := relay.EnvelopeHash(testDomain, bumped)
	require.NoError(t, err)
	assert.NotEqual(t, base, different)
}

func TestRecoverSigner(t *testing.T) {
	signer := newTestSigner(t)
	data := mustEncode(t, "register", []any{signer.address.Hex()})
	env := envelopeFor(t, signer, 0, data)
	signature := signer.sign(t, testDomain, env)

	t.Run("raw recovery id", func(t *testing.T) {
		recovered, err := relay.RecoverSigner(testDomain, env, signature)
		require.NoError(t, err)
		assert.Equal(t, signer.address, recovered)
	})

	t.Run("legacy 27/28 recovery id", func(t *testing.T) {
		legacy := make([]byte, len(signature))
		copy(legacy, signature)
		legacy[64] += 27

		recovered, err := relay.RecoverSigner(testDomain, env, legacy)
		require.NoError(t, err)
		assert.Equal(t, signer.address, recovered)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := relay.RecoverSigner(testDomain, env, signature[:64])
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("tampered envelope", func(t *testing.T) {
		tampered := envelopeFor(t, signer, 3, data)
		recovered, err := relay.RecoverSigner(testDomain, tampered, signature)
		if err == nil {
			assert.NotEqual(t, signer.address, recovered)
		}
	})

	t.Run("different domain never verifies", func(t *testing.T) {
		otherDomain := testDomain
		otherDomain.ChainID = 1

		recovered, err := relay.RecoverSigner(otherDomain, env, signature)
		if err == nil {
			assert.NotEqual(t, signer.address, recovered)
		}
	})
}
