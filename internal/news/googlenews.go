package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shenikar/crisis_command_system/internal/models"
)

const googleNewsRSSBase = "https://news.google.com/rss/search"

// GoogleNewsClient - клиент поиска новостей по RSS-ленте Google News
type GoogleNewsClient struct {
	httpClient *http.Client
}

// NewGoogleNewsClient создает клиент новостей
func NewGoogleNewsClient() *GoogleNewsClient {
	return &GoogleNewsClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type rssFeed struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
}

// Search возвращает заголовки по запросу "flood <локация>",
// опубликованные не раньше since
func (c *GoogleNewsClient) Search(ctx context.Context, location string, since time.Time) ([]models.NewsItem, error) {
	q := url.Values{}
	q.Set("q", "flood "+location)
	q.Set("hl", "en-US")
	q.Set("gl", "US")
	q.Set("ceid", "US:en")

	req, err := http.NewRequestWithContext(ctx, "GET", googleNewsRSSBase+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create news request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read news response: %w", err)
	}

	return parseFeed(body, since)
}

// parseFeed разбирает RSS и отфильтровывает устаревшие публикации
func parseFeed(body []byte, since time.Time) ([]models.NewsItem, error) {
	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse news feed: %w", err)
	}

	items := make([]models.NewsItem, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		if item.PubDate == "" {
			continue
		}
		publishedAt, err := time.Parse(time.RFC1123Z, item.PubDate)
		if err != nil {
			publishedAt, err = time.Parse(time.RFC1123, item.PubDate)
			if err != nil {
				continue
			}
		}
		if publishedAt.Before(since) {
			continue
		}
		items = append(items, models.NewsItem{
			Title:       item.Title,
			Link:        item.Link,
			PublishedAt: publishedAt.UTC(),
		})
	}
	return items, nil
}
