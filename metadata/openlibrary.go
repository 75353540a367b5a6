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

// OpenLibraryClient is the fallback metadata source. Its two endpoints
// return differently shaped documents: /isbn/{isbn}.json is a sparse
// edition object with plural fields, /search.json returns flat docs with
// its own field names.
type OpenLibraryClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewOpenLibraryClient(baseURL string, timeout time.Duration) *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

func (c *OpenLibraryClient) Name() string {
	return "openlibrary"
}

func (c *OpenLibraryClient) LookupISBN(ctx context.Context, isbn string) (*Record, error) {
	isbn = util.CanonicalizeISBN(isbn)
	if isbn == "" {
		return nil, errors.New("invalid ISBN")
	}

	lookupURL := fmt.Sprintf("%s/isbn/%s.json", c.baseURL, isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrNetwork, "fetch edition: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoResult
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrNetwork, "unexpected status: %d", resp.StatusCode)
	}

	var edition openLibraryEdition
	if err := json.NewDecoder(resp.Body).Decode(&edition); err != nil {
		return nil, ErrNoResult
	}

	return convertEdition(&edition, isbn), nil
}

func (c *OpenLibraryClient) SearchText(ctx context.Context, query string) ([]*Record, error) {
	if query == "" {
		return nil, errors.New("query is required")
	}

	searchURL := fmt.Sprintf("%s/search.json?q=%s&limit=10", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrNetwork, "search books: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrNetwork, "unexpected status: %d", resp.StatusCode)
	}

	var result openLibrarySearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, ErrNoResult
	}

	records := make([]*Record, 0, len(result.Docs))
	for i := range result.Docs {
		records = append(records, convertSearchDoc(&result.Docs[i]))
	}
	return records, nil
}

const userAgent = "shelfmark/0.3 (+https://github.com/avosk/shelfmark)"

func convertEdition(edition *openLibraryEdition, suppliedISBN string) *Record {
	record := &Record{
		Title:      orUnknownTitle(edition.Title),
		Author:     UnknownAuthor, // edition objects only carry author keys
		PubDate:    edition.PublishDate,
		TotalPages: edition.NumberOfPages,
		Source:     "openlibrary",
	}

	var isbn13, isbn10 string
	if len(edition.ISBN13) > 0 {
		isbn13 = edition.ISBN13[0]
	}
	if len(edition.ISBN10) > 0 {
		isbn10 = edition.ISBN10[0]
	}
	record.ISBN = pickISBN(isbn13, isbn10, suppliedISBN)

	// Publisher only has the plural form here
	if len(edition.Publishers) > 0 {
		record.Publisher = edition.Publishers[0]
	}

	switch v := edition.Description.(type) {
	case string:
		record.Description = v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			record.Description = val
		}
	}

	if record.ISBN != "" {
		record.CoverURL = util.SecureURL(fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-L.jpg", record.ISBN))
	}

	return record
}

func convertSearchDoc(doc *openLibrarySearchDoc) *Record {
	record := &Record{
		Title:      orUnknownTitle(doc.Title),
		Author:     joinAuthors(doc.AuthorName),
		TotalPages: doc.NumberOfPagesMedian,
		Source:     "openlibrary",
	}

	if doc.FirstPublishYear > 0 {
		record.PubDate = fmt.Sprintf("%d", doc.FirstPublishYear)
	}
	if len(doc.Publisher) > 0 {
		record.Publisher = doc.Publisher[0]
	}
	if len(doc.ISBN) > 0 {
		record.ISBN = pickISBN(firstOfLength(doc.ISBN, 13), firstOfLength(doc.ISBN, 10), "")
	}

	if record.ISBN != "" {
		record.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-L.jpg", record.ISBN)
	} else if doc.CoverI != 0 {
		record.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", doc.CoverI)
	}

	return record
}

func firstOfLength(isbns []string, length int) string {
	for _, raw := range isbns {
		if c := util.CanonicalizeISBN(raw); len(c) == length {
			return c
		}
	}
	return ""
}

// OpenLibrary API response types (internal)

type openLibraryEdition struct {
	Key           string   `json:"key"`
	Title         string   `json:"title"`
	Publishers    []string `json:"publishers"`
	PublishDate   string   `json:"publish_date"`
	ISBN10        []string `json:"isbn_10"`
	ISBN13        []string `json:"isbn_13"`
	NumberOfPages int      `json:"number_of_pages"`
	Description   any      `json:"description"` // string or {type, value}
}

type openLibrarySearchResult struct {
	NumFound int                    `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title"`
	AuthorName          []string `json:"author_name"`
	FirstPublishYear    int      `json:"first_publish_year"`
	Publisher           []string `json:"publisher"`
	ISBN                []string `json:"isbn"`
	CoverI              int      `json:"cover_i"`
	NumberOfPagesMedian int      `json:"number_of_pages_median"`
}
