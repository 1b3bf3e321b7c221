package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinCyclesTargets(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Add("booking", []string{"http://b1:8082", "http://b2:8082"}))

	var hosts []string
	for i := 0; i < 4; i++ {
		u, err := reg.Next("booking")
		require.NoError(t, err)
		hosts = append(hosts, u.Host)
	}
	assert.Equal(t, []string{"b1:8082", "b2:8082", "b1:8082", "b2:8082"}, hosts)
}

func TestSingleTargetIsConstant(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Add("account", []string{"http://account-service:8081"}))

	for i := 0; i < 3; i++ {
		u, err := reg.Next("account")
		require.NoError(t, err)
		assert.Equal(t, "account-service:8081", u.Host)
	}
}

func TestUnknownService(t *testing.T) {
	_, err := New().Next("catalog")
	assert.Error(t, err)
}

func TestRejectsBadTargets(t *testing.T) {
	reg := New()
	assert.Error(t, reg.Add("account", nil))
	assert.Error(t, reg.Add("account", []string{"account-service:8081"}))
}
