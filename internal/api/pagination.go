package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/erazemk/zaloga/internal/store"
)

// pageEnvelope is the paginated list body: the total count, links to the
// neighbouring pages and one page of results.
type pageEnvelope[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Pager reads page and page_size query parameters.
type Pager struct {
	DefaultSize int
	MaxSize     int
}

// pageRequest is a requested page, 1-based.
type pageRequest struct {
	Number int
	Size   int
}

func (p pageRequest) window() store.Page {
	return store.Page{Offset: (p.Number - 1) * p.Size, Limit: p.Size}
}

// parse reads the page request. An invalid page number yields ok == false;
// an invalid page size falls back to the default and a large one is clamped.
func (p Pager) parse(r *http.Request) (pageRequest, bool) {
	q := r.URL.Query()

	size := p.DefaultSize
	if s := q.Get("page_size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			size = min(n, p.MaxSize)
		}
	}

	number := 1
	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > store.MaxPageNumber {
			return pageRequest{}, false
		}
		number = n
	}

	return pageRequest{Number: number, Size: size}, true
}

// lastPage reports the number of the last page, at least 1.
func (p pageRequest) lastPage(count int) int {
	if count == 0 {
		return 1
	}
	return (count + p.Size - 1) / p.Size
}

// writePage writes one page of results. Pages past the last one are 404.
func writePage[T any](w http.ResponseWriter, r *http.Request, req pageRequest, count int, results []T) {
	last := req.lastPage(count)
	if req.Number > last {
		jsonError(w, http.StatusNotFound, "Invalid page.")
		return
	}
	if results == nil {
		results = []T{}
	}

	env := pageEnvelope[T]{Count: count, Results: results}
	if req.Number < last {
		link := pageURL(r, req.Number+1)
		env.Next = &link
	}
	if req.Number > 1 {
		link := pageURL(r, req.Number-1)
		env.Previous = &link
	}
	jsonResponse(w, http.StatusOK, env)
}

// pageURL returns the absolute URL of the request with its page parameter
// replaced. The first page is linked without a page parameter.
func pageURL(r *http.Request, number int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}

	q := r.URL.Query()
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}

	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}
