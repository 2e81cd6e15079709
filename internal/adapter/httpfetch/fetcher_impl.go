package httpfetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"

	"github.com/user/workdiary-service/internal/repository"
	"github.com/user/workdiary-service/pkg/utils"
)

const defaultUserAgent = "workdiary-service/1.0 (+image-fetch)"

// FetcherImpl downloads remote images over plain HTTP GET.
type FetcherImpl struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewFetcher creates a FetcherImpl. Responses larger than maxBytes are rejected.
func NewFetcher(client *http.Client, maxBytes int64) *FetcherImpl {
	return &FetcherImpl{
		client:    client,
		userAgent: defaultUserAgent,
		maxBytes:  maxBytes,
	}
}

// Fetch returns the body behind downloadURL. When Google Drive answers with its
// "can't scan this file for viruses" page instead of the file, the confirmation
// form on that page is submitted once.
func (f *FetcherImpl) Fetch(ctx context.Context, downloadURL string) ([]byte, error) {
	body, contentType, err := f.get(ctx, downloadURL)
	if err != nil {
		return nil, err
	}
	if !isHTML(contentType, body) {
		return body, nil
	}

	next, ok := driveConfirmURL(downloadURL, body)
	if !ok {
		return nil, repository.ErrFetchNotAnImage
	}
	body, contentType, err = f.get(ctx, next)
	if err != nil {
		return nil, err
	}
	if isHTML(contentType, body) {
		return nil, repository.ErrFetchNotAnImage
	}
	return body, nil
}

func (f *FetcherImpl) get(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", repository.ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", repository.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: %d", repository.ErrFetchBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", repository.ErrFetchFailed, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, "", repository.ErrFetchTooLarge
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func isHTML(contentType string, body []byte) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "text/html" {
		return true
	}
	return mimetype.Detect(body).Is("text/html")
}

// driveConfirmURL extracts the follow-up download link from a Drive interstitial page.
func driveConfirmURL(pageURL string, page []byte) (string, bool) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", false
	}

	form := doc.Find("form#download-form").First()
	if form.Length() == 0 {
		// older pages link the file directly
		href, exists := doc.Find("a#uc-download-link").First().Attr("href")
		if !exists || href == "" {
			return "", false
		}
		link, err := utils.ToAbsoluteURL(base, href)
		return link, err == nil
	}

	action, exists := form.Attr("action")
	if !exists || action == "" {
		return "", false
	}
	link, err := utils.ToAbsoluteURL(base, action)
	if err != nil {
		return "", false
	}
	target, err := url.Parse(link)
	if err != nil {
		return "", false
	}

	query := target.Query()
	form.Find("input[type=hidden]").Each(func(i int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		value, _ := s.Attr("value")
		if name != "" {
			query.Set(name, value)
		}
	})
	target.RawQuery = query.Encode()
	return target.String(), true
}
