package httpclient

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicUnicast(t *testing.T) {
	blocked := []string{
		"127.0.0.1",       // loopback
		"::1",             // v6 loopback
		"10.1.2.3",        // RFC 1918
		"172.16.0.1",      // RFC 1918
		"192.168.1.1",     // RFC 1918
		"169.254.169.254", // cloud metadata endpoint (link-local)
		"fe80::1",         // v6 link-local
		"fd00::1",         // v6 unique-local
		"224.0.0.1",       // multicast
		"0.0.0.0",         // unspecified
		"::ffff:10.0.0.1", // mapped private v4
	}
	for _, raw := range blocked {
		addr, err := netip.ParseAddr(raw)
		require.NoError(t, err)
		assert.False(t, publicUnicast(addr), "%s must be refused", raw)
	}

	allowed := []string{"8.8.8.8", "1.1.1.1", "2606:4700:4700::1111"}
	for _, raw := range allowed {
		addr, err := netip.ParseAddr(raw)
		require.NoError(t, err)
		assert.True(t, publicUnicast(addr), "%s must be dialable", raw)
	}
}

func TestDoRefusesLoopbackDial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("guarded client reached a loopback server")
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = New(5 * time.Second).Do(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-public address")
}

func TestDoRefusesNonHTTPSchemes(t *testing.T) {
	g := New(5 * time.Second)

	for _, raw := range []string{"file:///etc/passwd", "ftp://example.com/x"} {
		req, err := http.NewRequest(http.MethodGet, raw, nil)
		require.NoError(t, err)
		_, err = g.Do(req)
		assert.Error(t, err, raw)
	}
}

func TestDoRefusesHostlessRequest(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http:///path-only", nil)
	require.NoError(t, err)

	_, err = New(time.Second).Do(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no host")
}
