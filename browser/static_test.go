package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailHTML = `<html><body>
<div id="content"><div class="cright">
  <span id="Exhi_Name"> Acme Co. </span>
  <span class="page_cur">2</span>
</div></div>
</body></html>`

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/detail", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fairscrape-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(detailHTML))
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/detail", http.StatusFound)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestStatic() *Static {
	return NewStatic(StaticOptions{Timeout: 5 * time.Second, UserAgent: "fairscrape-test"})
}

// TestStatic_NavigateAndQuery verifies the fetched document is queryable
func TestStatic_NavigateAndQuery(t *testing.T) {
	server := newTestServer(t)
	s := newTestStatic()
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, server.URL+"/detail"))
	assert.Equal(t, server.URL+"/detail", s.URL())

	require.NoError(t, s.WaitPresent(ctx, "#content .cright", time.Second))

	doc, err := s.Document(ctx)
	require.NoError(t, err)
	assert.Equal(t, " Acme Co. ", doc.Find("#Exhi_Name").Text())
	require.NotNil(t, doc.Url)
	assert.Equal(t, "/detail", doc.Url.Path)
}

// TestStatic_FollowsRedirect verifies the final URL is recorded
func TestStatic_FollowsRedirect(t *testing.T) {
	server := newTestServer(t)
	s := newTestStatic()

	require.NoError(t, s.Navigate(context.Background(), server.URL+"/moved"))
	assert.Equal(t, server.URL+"/detail", s.URL())
}

func TestStatic_HTTPError(t *testing.T) {
	server := newTestServer(t)
	s := newTestStatic()

	err := s.Navigate(context.Background(), server.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

// TestStatic_WaitMissing verifies absent elements are reported as stalls
func TestStatic_WaitMissing(t *testing.T) {
	server := newTestServer(t)
	s := newTestStatic()
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, server.URL+"/detail"))

	err := s.WaitPresent(ctx, "#pagearea", time.Second)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsStall(err))
}

func TestStatic_WaitText(t *testing.T) {
	server := newTestServer(t)
	s := newTestStatic()
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, server.URL+"/detail"))

	assert.NoError(t, s.WaitText(ctx, "span.page_cur", "2", time.Second))
	assert.ErrorIs(t, s.WaitText(ctx, "span.page_cur", "3", time.Second), ErrNotFound)
}

func TestStatic_ClickUnsupported(t *testing.T) {
	s := newTestStatic()

	err := s.Click(context.Background(), "a")
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, IsStall(err))
}

func TestStatic_DocumentBeforeNavigate(t *testing.T) {
	s := newTestStatic()

	_, err := s.Document(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}
