package redis

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions(t *testing.T) {
	opts := clientOptions(Config{Addr: "cache:6379", Password: "s3cret", DB: 2})
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "s3cret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Nil(t, opts.TLSConfig)
	assert.Equal(t, dialTimeout, opts.DialTimeout)

	opts = clientOptions(Config{Addr: "cache:6380", TLS: true})
	require.NotNil(t, opts.TLSConfig)
	assert.Equal(t, uint16(tls.VersionTLS12), opts.TLSConfig.MinVersion)
}
