package video

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/thaifoodie/chat-backend/internal/types"
)

const (
	defaultSearchURL = "https://www.googleapis.com/youtube/v3/search"
	maxResults       = 5
)

// YouTubeClient queries the YouTube Data API for cooking videos.
type YouTubeClient struct {
	apiKey     string
	searchURL  string
	httpClient *http.Client
}

// NewYouTubeClient creates a new YouTube search client.
func NewYouTubeClient(apiKey string) *YouTubeClient {
	return &YouTubeClient{
		apiKey:    apiKey,
		searchURL: defaultSearchURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func queryPrefix(lang string) string {
	if lang == "en" {
		return "how to make "
	}
	return "วิธีทำ "
}

// searchResponse is the subset of the YouTube search response we use.
type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			Thumbnails struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search returns up to five embeddable videos for a dish, in the
// API's relevance order. The query carries a "how to make" prefix in
// the chat language for better results.
func (c *YouTubeClient) Search(ctx context.Context, dishName, lang string) ([]types.Video, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("q", queryPrefix(lang)+dishName)
	q.Set("type", "video")
	q.Set("maxResults", fmt.Sprintf("%d", maxResults))
	q.Set("videoEmbeddable", "true")
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	videos := make([]types.Video, 0, len(apiResp.Items))
	for _, item := range apiResp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, types.Video{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			Thumbnail:    item.Snippet.Thumbnails.High.URL,
			ChannelTitle: item.Snippet.ChannelTitle,
		})
	}
	return videos, nil
}
