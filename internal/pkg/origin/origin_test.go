package origin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testGuard() *Guard {
	return NewGuard(
		[]string{"https://utahreia.org", "http://localhost:3000", " "},
		[]string{".gohighlevel.com", ".leadconnectorhq.com", ".msgsndr.com"},
	)
}

func TestAllowed(t *testing.T) {
	g := testGuard()
	cases := []struct {
		origin string
		want   bool
	}{
		{"https://utahreia.org", true},
		{"http://localhost:3000", true},
		{"https://foo.leadconnectorhq.com", true},
		{"https://app.msgsndr.com", true},
		{"https://evil.example.com", false},
		{"https://utahreia.org.evil.com", false},
		{"https://leadconnectorhq.com.evil.com", false},
		{"http://localhost:3001", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, g.Allowed(tc.origin), tc.origin)
	}
}

func TestEvaluate_Allowed(t *testing.T) {
	d := testGuard().Evaluate("https://foo.leadconnectorhq.com")
	assert.True(t, d.Allowed)
	assert.Equal(t, "https://foo.leadconnectorhq.com", d.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", d.Header.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Origin", d.Header.Get("Vary"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", d.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", d.Header.Get("Access-Control-Allow-Headers"))
}

func TestEvaluate_Denied(t *testing.T) {
	d := testGuard().Evaluate("https://evil.example.com")
	assert.False(t, d.Allowed)
	assert.Empty(t, d.Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, d.Header.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Origin", d.Header.Get("Vary"))
	assert.NotEmpty(t, d.Header.Get("Access-Control-Allow-Methods"))
}
