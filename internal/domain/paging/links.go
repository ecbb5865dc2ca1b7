package paging

import (
	"net/url"
	"strconv"
)

// Links holds navigation URLs for a window. Prev and Next are empty when
// there is no such page.
type Links struct {
	Self  string `json:"self"`
	First string `json:"first"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
	Last  string `json:"last"`
}

// Links builds offset/limit navigation URLs relative to baseURL, keeping any
// query parameters already present on it.
func (w Window) Links(baseURL string) (Links, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return Links{}, err
	}

	links := Links{
		Self:  pageURL(base, w),
		First: pageURL(base, w.FirstPage()),
		Last:  pageURL(base, w.LastPage()),
	}
	if w.HasPrevious() {
		links.Prev = pageURL(base, w.PreviousPage())
	}
	if w.HasNext() {
		links.Next = pageURL(base, w.NextPage())
	}
	return links, nil
}

func pageURL(base *url.URL, w Window) string {
	u := *base
	q := u.Query()
	q.Set("offset", strconv.Itoa(w.Start()))
	q.Set("limit", strconv.Itoa(w.Size()))
	u.RawQuery = q.Encode()
	return u.String()
}
