package urlrewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewrite(t *testing.T) {
	tests := []struct {
		name     string
		original string
		host     string
		port     string
		prefix   string
		want     string
	}{
		{
			name:     "reverse proxy with prefix",
			original: "http://ci.internal:8080/job/demo/",
			host:     "public.example.com",
			port:     "443",
			prefix:   "/jenkins",
			want:     "http://public.example.com:443/jenkins/job/demo/",
		},
		{
			name:     "no prefix keeps path",
			original: "http://ci.internal:8080/job/demo/12/",
			host:     "jenkins.example.com",
			port:     "8443",
			want:     "http://jenkins.example.com:8443/job/demo/12/",
		},
		{
			name:     "query and fragment preserved",
			original: "https://ci.internal:8080/queue/item/7/?tree=executable%5Burl%5D&depth=1#top",
			host:     "ci.example.com",
			port:     "9000",
			prefix:   "/ci",
			want:     "https://ci.example.com:9000/ci/queue/item/7/?tree=executable%5Burl%5D&depth=1#top",
		},
		{
			name:     "prefix with trailing slash doubles the separator",
			original: "http://ci.internal/job/demo/",
			host:     "ci.example.com",
			port:     "80",
			prefix:   "/jenkins/",
			want:     "http://ci.example.com:80/jenkins//job/demo/",
		},
		{
			name:     "empty port drops the port",
			original: "http://ci.internal:8080/job/demo/",
			host:     "ci.example.com",
			want:     "http://ci.example.com/job/demo/",
		},
		{
			name:     "original without port",
			original: "https://ci.internal/job/demo/",
			host:     "ci.example.com",
			port:     "8080",
			want:     "https://ci.example.com:8080/job/demo/",
		},
		{
			name:     "ipv6 host",
			original: "http://ci.internal:8080/job/demo/",
			host:     "::1",
			port:     "8080",
			want:     "http://[::1]:8080/job/demo/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rewrite(tt.original, tt.host, tt.port, tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRewriteOverwritesHost(t *testing.T) {
	first, err := Rewrite("http://ci.internal:8080/job/demo/", "a.example.com", "1", "")
	require.NoError(t, err)

	second, err := Rewrite(first, "b.example.com", "2", "")
	require.NoError(t, err)
	assert.Equal(t, "http://b.example.com:2/job/demo/", second)

	prefixed, err := Rewrite(first, "b.example.com", "2", "/p")
	require.NoError(t, err)
	assert.Equal(t, "http://b.example.com:2/p/job/demo/", prefixed)
}

func TestRewriteInvalidURL(t *testing.T) {
	_, err := Rewrite("http://bad host/%zz", "h", "1", "")
	assert.Error(t, err)
}

func TestNewTarget(t *testing.T) {
	target, err := NewTarget("http://ci.internal:8080/jenkins")
	require.NoError(t, err)
	assert.Equal(t, Target{Host: "ci.internal", Port: "8080", Prefix: "/jenkins"}, target)

	target, err = NewTarget("https://jenkins.example.com")
	require.NoError(t, err)
	assert.Equal(t, Target{Host: "jenkins.example.com"}, target)

	_, err = NewTarget("not a url")
	assert.Error(t, err)
}

func TestTargetRewriteAndEndpoint(t *testing.T) {
	target := Target{Host: "public.example.com", Port: "443", Prefix: "/jenkins"}

	rewritten, err := target.Rewrite("http://ci.internal:8080/job/demo/3/")
	require.NoError(t, err)
	assert.Equal(t, "http://public.example.com:443/jenkins/job/demo/3/", rewritten)

	endpoint, err := target.Endpoint(rewritten)
	require.NoError(t, err)
	assert.Equal(t, "/job/demo/3/", endpoint)

	root := Target{Host: "ci.example.com"}
	endpoint, err = root.Endpoint("http://ci.example.com/queue/item/4/")
	require.NoError(t, err)
	assert.Equal(t, "/queue/item/4/", endpoint)
}

func TestEndpointKeepsEscapes(t *testing.T) {
	target := Target{Host: "public.example.com", Port: "443", Prefix: "/jenkins"}

	rewritten, err := target.Rewrite("http://ci.internal:8080/job/a%23b/12/")
	require.NoError(t, err)
	assert.Equal(t, "http://public.example.com:443/jenkins/job/a%23b/12/", rewritten)

	for _, tt := range []struct{ url, want string }{
		{rewritten, "/job/a%23b/12/"},
		{"http://public.example.com:443/jenkins/job/what%3F/", "/job/what%3F/"},
		{"http://public.example.com:443/jenkins/job/100%25/", "/job/100%25/"},
		{"http://public.example.com:443/jenkins/job/my%20job/", "/job/my%20job/"},
	} {
		endpoint, err := target.Endpoint(tt.url)
		require.NoError(t, err)
		assert.Equal(t, tt.want, endpoint, tt.url)
	}
}
