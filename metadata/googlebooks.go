package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/avosk/shelfmark/util"
	"github.com/pkg/errors"
)

// GoogleBooksClient is the primary metadata source. Results nest the
// interesting fields in a volumeInfo object with author and identifier
// arrays.
type GoogleBooksClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewGoogleBooksClient(baseURL string, timeout time.Duration) *GoogleBooksClient {
	return &GoogleBooksClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

func (c *GoogleBooksClient) Name() string {
	return "googlebooks"
}

func (c *GoogleBooksClient) LookupISBN(ctx context.Context, isbn string) (*Record, error) {
	isbn = util.CanonicalizeISBN(isbn)
	if isbn == "" {
		return nil, errors.New("invalid ISBN")
	}

	result, err := c.query(ctx, fmt.Sprintf("isbn:%s", isbn))
	if err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, ErrNoResult
	}

	record := convertVolume(&result.Items[0], isbn)
	if record == nil {
		return nil, ErrNoResult
	}
	return record, nil
}

func (c *GoogleBooksClient) SearchText(ctx context.Context, query string) ([]*Record, error) {
	if query == "" {
		return nil, errors.New("query is required")
	}

	result, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(result.Items))
	for i := range result.Items {
		if record := convertVolume(&result.Items[i], ""); record != nil {
			records = append(records, record)
		}
	}
	return records, nil
}

func (c *GoogleBooksClient) query(ctx context.Context, q string) (*volumesResult, error) {
	queryURL := fmt.Sprintf("%s/volumes?q=%s&maxResults=10", c.baseURL, url.QueryEscape(q))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrNetwork, "fetch volumes: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrNetwork, "unexpected status: %d", resp.StatusCode)
	}

	var result volumesResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// Malformed payload is "no result", not an error the caller sees
		return &volumesResult{}, nil
	}
	return &result, nil
}

// convertVolume maps one volume into the canonical shape. A volume with no
// volumeInfo at all is unusable and yields nil.
func convertVolume(v *volume, suppliedISBN string) *Record {
	info := v.VolumeInfo
	if info == nil {
		return nil
	}

	var isbn13, isbn10 string
	for _, ident := range info.IndustryIdentifiers {
		switch ident.Type {
		case "ISBN_13":
			isbn13 = ident.Identifier
		case "ISBN_10":
			isbn10 = ident.Identifier
		}
	}

	var cover string
	if info.ImageLinks != nil {
		cover = info.ImageLinks.Thumbnail
		if cover == "" {
			cover = info.ImageLinks.SmallThumbnail
		}
		cover = util.SecureURL(cover)
	}

	return &Record{
		Title:       orUnknownTitle(info.Title),
		Author:      joinAuthors(info.Authors),
		Description: info.Description,
		CoverURL:    cover,
		ISBN:        pickISBN(isbn13, isbn10, suppliedISBN),
		Publisher:   info.Publisher,
		PubDate:     info.PublishedDate,
		TotalPages:  info.PageCount,
		Source:      "googlebooks",
	}
}

// Google Books API response types (internal)

type volumesResult struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string      `json:"id"`
	VolumeInfo *volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	PageCount           int                  `json:"pageCount"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
	ImageLinks          *imageLinks          `json:"imageLinks"`
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}
