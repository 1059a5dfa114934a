package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePrefix(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  launchlens.api  ": "launchlens.api",
		"..foo..":            "foo",
		".":                  "",
		"":                   "",
		"launch lens":        "launch_lens",
	}
	for input, want := range tests {
		assert.Equal(t, want, sanitizePrefix(input), input)
	}
}

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" job/transition ": "job_transition",
		"foo..bar":         "foo.bar",
		"queue:depth|g":    "queue_depth_g",
		"a@b#c,d":          "a_b_c_d",
	}
	for input, want := range tests {
		assert.Equal(t, want, normalizeMetricName(input), input)
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{"env": "prod", " service ": " worker "}
	local := map[string]string{"result": " success ", "": "ignored", "env": "stage"}

	assert.Equal(t, "|#env:stage,result:success,service:worker", formatTags(global, local))
	assert.Empty(t, formatTags(nil, nil))
	assert.Empty(t, formatTags(map[string]string{" ": "x"}, nil))
}

func TestClientLine(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "launchlens", globalTags: map[string]string{"env": "test"}}
	assert.Equal(t, "launchlens.job.transition:1|c|#env:test,result:ok",
		c.line("job.transition", "1", "c", map[string]string{"result": "ok"}))
	assert.Empty(t, c.line("  ", "1", "c", nil))
}

func TestClientSendsDatagrams(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	client, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String(), Prefix: "ll"})
	require.NoError(t, err)
	defer client.Close()
	require.True(t, client.Enabled())

	client.Timing("job.duration", 1500*time.Microsecond, map[string]string{"job_type": "sector"})

	buf := make([]byte, 512)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "ll.job.duration:1.5|ms|#job_type:sector", string(buf[:n]))
}

func TestClientEnabledAndClose(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{conn: clientConn}
	require.True(t, client.Enabled())
	require.NoError(t, client.Close())
	assert.False(t, client.Enabled())
	require.NoError(t, client.Close(), "second close is a no-op")

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	assert.NoError(t, nilClient.Close())
	assert.Zero(t, nilClient.Dropped())
	nilClient.Count("ignored", 1, nil)
}

func TestNewClientDisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statsd dial")
}
