package article

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scripted struct {
	batches [][]Item
	errs    []error
	call    int
}

func (s *scripted) get(context.Context) ([]Item, error) {
	i := s.call
	s.call++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.batches) {
		return s.batches[i], nil
	}
	return nil, nil
}

func item(title string, ts time.Time) Item {
	return Item{Article: Article{Title: title}, Published: ts}
}

func titles(articles []Article) []string {
	var out []string
	for _, a := range articles {
		out = append(out, a.Title)
	}
	return out
}

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func TestProviderForwardsOnlyNewerArticles(t *testing.T) {
	feed := &scripted{batches: [][]Item{
		{item("a", base), item("b", base.Add(time.Minute))},
		{item("b", base.Add(time.Minute)), item("c", base.Add(2 * time.Minute))},
	}}
	p := NewProvider(feed.get)
	ctx := context.Background()

	assert.Equal(t, []string{"a", "b"}, titles(p.Articles(ctx)))
	assert.Equal(t, base.Add(time.Minute), p.LastSeen(0))

	assert.Equal(t, []string{"c"}, titles(p.Articles(ctx)))
	assert.Equal(t, base.Add(2*time.Minute), p.LastSeen(0))
}

func TestProviderExcludesEqualTimestampAndNeverRegresses(t *testing.T) {
	feed := &scripted{batches: [][]Item{
		{item("first", base)},
		{item("same-time", base), item("older", base.Add(-time.Hour))},
	}}
	p := NewProvider(feed.get)
	ctx := context.Background()

	require.Len(t, p.Articles(ctx), 1)
	assert.Empty(t, p.Articles(ctx))
	assert.Equal(t, base, p.LastSeen(0))
}

func TestProviderStartsAtEpochPerFeed(t *testing.T) {
	a := &scripted{batches: [][]Item{{item("x", time.Unix(1, 0))}}}
	b := &scripted{batches: [][]Item{{item("epoch", time.Unix(0, 0))}}}
	p := NewProvider(a.get, b.get)

	assert.Equal(t, []string{"x"}, titles(p.Articles(context.Background())))
	assert.Equal(t, time.Unix(0, 0).UTC(), p.LastSeen(1))
	assert.Equal(t, 2, p.Len())
}

func TestProviderSkipsFailingGetter(t *testing.T) {
	broken := &scripted{errs: []error{errors.New("503")}}
	ok := &scripted{batches: [][]Item{{item("ok", base)}}}
	p := NewProvider(broken.get, ok.get)

	assert.Equal(t, []string{"ok"}, titles(p.Articles(context.Background())))
	assert.True(t, p.LastSeen(0).Equal(time.Unix(0, 0)))
}

const rss = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Crypto Wire</title>
<item><title>ETF approved</title><link>https://example.com/1</link><pubDate>Wed, 01 May 2024 09:00:00 GMT</pubDate></item>
<item><title>No date</title><link>https://example.com/2</link></item>
</channel></rss>`

func TestFeedGetterParsesRSS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rss))
	}))
	defer srv.Close()

	items, err := FeedGetter(srv.URL)(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ETF approved", items[0].Article.Title)
	assert.Equal(t, "Crypto Wire", items[0].Article.Source)
	assert.True(t, items[0].Published.Equal(base))
}
