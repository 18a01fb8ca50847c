// Package article gathers unseen news articles from a set of feeds.
package article

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "article")

// Article is the payload forwarded to the advisor.
type Article struct {
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	Link      string    `json:"link,omitempty"`
	Source    string    `json:"source,omitempty"`
	Published time.Time `json:"published"`
}

// Item pairs an article with the timestamp used for deduplication.
type Item struct {
	Article   Article
	Published time.Time
}

// Getter returns the current contents of one feed.
type Getter func(ctx context.Context) ([]Item, error)

// Provider remembers, per getter, the newest timestamp it has forwarded.
// Not safe for concurrent use.
type Provider struct {
	getters  []Getter
	lastSeen []time.Time
}

// NewProvider starts every getter at the Unix epoch.
func NewProvider(getters ...Getter) *Provider {
	lastSeen := make([]time.Time, len(getters))
	for i := range lastSeen {
		lastSeen[i] = time.Unix(0, 0).UTC()
	}
	return &Provider{getters: getters, lastSeen: lastSeen}
}

// Articles polls every getter and returns the articles newer than that
// getter's last-seen time, in getter order. A failing getter is skipped and
// keeps its last-seen time.
func (p *Provider) Articles(ctx context.Context) []Article {
	var out []Article
	for i, get := range p.getters {
		items, err := get(ctx)
		if err != nil {
			log.WithError(err).WithField("feed", i).Warn("article getter failed")
			continue
		}
		newest := p.lastSeen[i]
		for _, it := range items {
			if !it.Published.After(p.lastSeen[i]) {
				continue
			}
			out = append(out, it.Article)
			if it.Published.After(newest) {
				newest = it.Published
			}
			log.WithField("title", it.Article.Title).Info("trading on article")
		}
		p.lastSeen[i] = newest
	}
	return out
}

// LastSeen reports the newest forwarded timestamp of getter i.
func (p *Provider) LastSeen(i int) time.Time {
	return p.lastSeen[i]
}

// Len is the number of getters.
func (p *Provider) Len() int { return len(p.getters) }
