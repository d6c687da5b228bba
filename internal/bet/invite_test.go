package bet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateInviteCode(t *testing.T) {
	code, err := GenerateInviteCode()

	assert.NoError(t, err)
	assert.Len(t, code, inviteCodeLength)
	for _, r := range code {
		assert.True(t, strings.ContainsRune(inviteCodeAlphabet, r), "unexpected character %q", r)
	}
}

func TestInviteCodeAlphabetExcludesLookalikes(t *testing.T) {
	for _, r := range "0O1IL" {
		assert.False(t, strings.ContainsRune(inviteCodeAlphabet, r), "lookalike %q in alphabet", r)
	}
}

func TestGenerateInviteCode_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateInviteCode()
		assert.NoError(t, err)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}
