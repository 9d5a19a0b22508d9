package scrape

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/targeting-cli/pkg/jina"
)

type fakeJina struct {
	resp  *jina.ReadResponse
	err   error
	calls int
}

func (f *fakeJina) Read(_ context.Context, _ string) (*jina.ReadResponse, error) {
	f.calls++
	return f.resp, f.err
}

func goodJinaResponse() *jina.ReadResponse {
	return &jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{
			Title:   "Acme",
			URL:     "https://acme.example",
			Content: strings.Repeat("Real page content. ", 20),
		},
	}
}

func TestJinaAdapter_Success(t *testing.T) {
	adapter := NewJinaAdapter(&fakeJina{resp: goodJinaResponse()})

	res, err := adapter.Scrape(context.Background(), "https://acme.example")
	require.NoError(t, err)

	assert.Equal(t, "jina", res.Source)
	assert.Equal(t, "Acme", res.Page.Title)
	assert.NotEmpty(t, res.Page.Markdown)
	assert.Empty(t, res.Page.HTML)
}

func TestJinaAdapter_BlockedResponseCountsAsFailure(t *testing.T) {
	blocked := &jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{Content: strings.Repeat("Just a moment... checking your browser ", 5)},
	}
	adapter := NewJinaAdapter(&fakeJina{resp: blocked})

	_, err := adapter.Scrape(context.Background(), "https://acme.example")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs fallback")
}

func TestJinaAdapter_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	client := &fakeJina{err: eris.New("upstream 500")}
	adapter := NewJinaAdapter(client)

	for i := 0; i < 3; i++ {
		require.True(t, adapter.Supports("https://acme.example"))
		_, err := adapter.Scrape(context.Background(), "https://acme.example")
		require.Error(t, err)
	}

	// Threshold reached: the adapter drops out of the chain.
	assert.False(t, adapter.Supports("https://acme.example"))
	assert.Equal(t, 3, client.calls)
}

func TestNeedsFallback(t *testing.T) {
	longChallenge := strings.Repeat("filler text ", 100) + "access denied"

	tests := []struct {
		name string
		resp *jina.ReadResponse
		want bool
	}{
		{"nil response", nil, true},
		{"error code", &jina.ReadResponse{Code: 451}, true},
		{"short content", &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: "tiny"}}, true},
		{"good content", goodJinaResponse(), false},
		{
			"short challenge page",
			&jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: strings.Repeat("Enable JavaScript to continue. ", 5)}},
			true,
		},
		{
			// A long article merely mentioning a signature is fine.
			"long page mentioning signature",
			&jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: longChallenge}},
			false,
		},
		{"zero code treated as ok", &jina.ReadResponse{Code: 0, Data: jina.ReadData{Content: strings.Repeat("ok ", 100)}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, needsFallback(tt.resp))
		})
	}
}
