package secretary

import (
	"testing"

	"github.com/danilovkiri/dk-go-trainqueue/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAndValidate(t *testing.T) {
	s, err := NewSecretaryService(&config.SecretConfig{SecretKey: "jds__63h3_7ds", AdminPassword: "hunter2"})
	require.NoError(t, err)

	_, err = s.Login("wrong")
	assert.Error(t, err)

	token, err := s.Login("hunter2")
	require.NoError(t, err)
	assert.NoError(t, s.ValidateToken(token))
	assert.Error(t, s.ValidateToken(token+"x"))
	assert.Error(t, s.ValidateToken("not-a-token"))
}

func TestMissingAdminPassword(t *testing.T) {
	_, err := NewSecretaryService(&config.SecretConfig{SecretKey: "jds__63h3_7ds"})
	assert.Error(t, err)
}
