package article

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedGetter reads an RSS or Atom feed. Entries without a published or
// updated date are dropped since they cannot be deduplicated.
func FeedGetter(url string) Getter {
	parser := gofeed.NewParser()
	return func(ctx context.Context) ([]Item, error) {
		feed, err := parser.ParseURLWithContext(url, ctx)
		if err != nil {
			return nil, err
		}
		return feedItems(feed), nil
	}
}

func feedItems(feed *gofeed.Feed) []Item {
	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		var ts *time.Time
		switch {
		case it.PublishedParsed != nil:
			ts = it.PublishedParsed
		case it.UpdatedParsed != nil:
			ts = it.UpdatedParsed
		default:
			continue
		}
		items = append(items, Item{
			Article: Article{
				Title:     it.Title,
				Summary:   it.Description,
				Link:      it.Link,
				Source:    feed.Title,
				Published: ts.UTC(),
			},
			Published: ts.UTC(),
		})
	}
	return items
}
