package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionExpired(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: at}

	assert.False(t, s.Expired(at.Add(-time.Second)))
	assert.True(t, s.Expired(at), "a session expiring exactly now is dead")
	assert.True(t, s.Expired(at.Add(time.Second)))
}
