package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAccessClass(t *testing.T) {
	tests := []struct {
		name     string
		class    AccessClass
		expected bool
	}{
		{
			name:     "valid read only",
			class:    AccessClassReadOnly,
			expected: true,
		},
		{
			name:     "valid full access",
			class:    AccessClassFullAccess,
			expected: true,
		},
		{
			name:     "invalid empty class",
			class:    AccessClass(""),
			expected: false,
		},
		{
			name:     "invalid random class",
			class:    AccessClass("write_only"),
			expected: false,
		},
		{
			name:     "invalid casing",
			class:    AccessClass("READ_ONLY"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidAccessClass(tt.class)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestPermission_Live(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name       string
		permission *Permission
		expected   bool
	}{
		{
			name:       "nil permission",
			permission: nil,
			expected:   false,
		},
		{
			name:       "revoked grant",
			permission: &Permission{Granted: false, ExpiresAt: &future},
			expected:   false,
		},
		{
			name:       "granted without expiry",
			permission: &Permission{Granted: true, ExpiresAt: nil},
			expected:   true,
		},
		{
			name:       "granted before expiry",
			permission: &Permission{Granted: true, ExpiresAt: &future},
			expected:   true,
		},
		{
			name:       "granted past expiry",
			permission: &Permission{Granted: true, ExpiresAt: &past},
			expected:   false,
		},
		{
			name:       "expiry boundary is exclusive",
			permission: &Permission{Granted: true, ExpiresAt: &now},
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.permission.Live(now)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		expected bool
	}{
		{
			name:     "valid lowercase address",
			address:  "0x5fbdb2315678afecb367f032d93f642f64180aa3",
			expected: true,
		},
		{
			name:     "valid checksummed address",
			address:  "0x5FbDB2315678afecb367f032d93F642f64180aa3",
			expected: true,
		},
		{
			name:     "valid without prefix",
			address:  "5fbdb2315678afecb367f032d93f642f64180aa3",
			expected: true,
		},
		{
			name:     "invalid empty address",
			address:  "",
			expected: false,
		},
		{
			name:     "invalid short address",
			address:  "0x5fbdb23",
			expected: false,
		},
		{
			name:     "invalid non-hex characters",
			address:  "0x5fbdb2315678afecb367f032d93f642f64180zz3",
			expected: false,
		},
		{
			name:     "invalid tezos address",
			address:  "tz1VSUr8wwNhLAzempoch5d6hLRiTh8Cjcjb",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidAddress(tt.address)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		expected string
	}{
		{
			name:     "lowercase to checksum",
			address:  "0x5fbdb2315678afecb367f032d93f642f64180aa3",
			expected: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		},
		{
			name:     "uppercase hex prefix",
			address:  "0X5FBDB2315678AFECB367F032D93F642F64180AA3",
			expected: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		},
		{
			name:     "already checksummed is unchanged",
			address:  "0x5FbDB2315678afecb367f032d93F642f64180aa3",
			expected: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		},
		{
			name:     "no prefix passes through",
			address:  "not-an-address",
			expected: "not-an-address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeAddress(tt.address)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSameAddress(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected bool
	}{
		{
			name:     "same address different casing",
			a:        "0x5fbdb2315678afecb367f032d93f642f64180aa3",
			b:        "0x5FbDB2315678afecb367f032d93F642f64180aa3",
			expected: true,
		},
		{
			name:     "different addresses",
			a:        "0x1111111111111111111111111111111111111111",
			b:        "0x2222222222222222222222222222222222222222",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SameAddress(tt.a, tt.b)
			assert.Equal(t, tt.expected, result)
		})
	}
}
