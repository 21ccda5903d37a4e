// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Pagination holds pagination data for templates.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int64
	PerPage     int
	HasPrev     bool
	HasNext     bool
	PrevURL     string
	NextURL     string
	Pages       []PaginationPage
	BaseURL     string
	QueryString string
	// Target is the element id htmx swaps when a page link is followed.
	Target string
}

// PaginationPage represents a single page link.
type PaginationPage struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// BuildPagination creates pagination data for a list at baseURL.
// queryParams are preserved in page links, except for "page".
func BuildPagination(currentPage int, totalItems int64, perPage int, baseURL string, queryParams url.Values) Pagination {
	currentPage, totalPages := NormalizePagination(currentPage, totalItems, perPage)

	p := Pagination{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		PerPage:     perPage,
		HasPrev:     currentPage > 1,
		HasNext:     currentPage < totalPages,
		BaseURL:     baseURL,
	}

	if queryParams != nil {
		params := make(url.Values)
		for k, v := range queryParams {
			if k != "page" && len(v) > 0 && v[0] != "" {
				params[k] = v
			}
		}
		if len(params) > 0 {
			p.QueryString = params.Encode()
		}
	}

	if p.HasPrev {
		p.PrevURL = p.PageURL(currentPage - 1)
	}
	if p.HasNext {
		p.NextURL = p.PageURL(currentPage + 1)
	}
	p.Pages = BuildPaginationPages(currentPage, totalPages, p.PageURL,
		func(number int, pageURL string, isCurrent, isEllipsis bool) PaginationPage {
			return PaginationPage{Number: number, URL: pageURL, IsCurrent: isCurrent, IsEllipsis: isEllipsis}
		})

	return p
}

// PageURL returns the URL for a specific page number.
func (p Pagination) PageURL(page int) string {
	if p.QueryString != "" {
		return fmt.Sprintf("%s?%s&page=%d", p.BaseURL, p.QueryString, page)
	}
	return fmt.Sprintf("%s?page=%d", p.BaseURL, page)
}

// ShouldShow returns true if there is more than one page.
func (p Pagination) ShouldShow() bool {
	return p.TotalPages > 1
}

// PageRange describes the items on the current page, e.g. "6-10".
func (p Pagination) PageRange() string {
	if p.TotalItems == 0 {
		return "0"
	}
	start := (p.CurrentPage-1)*p.PerPage + 1
	end := min(int64(p.CurrentPage*p.PerPage), p.TotalItems)
	return fmt.Sprintf("%d-%d", start, end)
}

// BuildPaginationPages generates page links with ellipsis. It shows 5 page
// numbers centered on the current page and always includes the first and
// last pages.
func BuildPaginationPages[T any](
	currentPage, totalPages int,
	buildURL func(int) string,
	makePage func(number int, pageURL string, isCurrent, isEllipsis bool) T,
) []T {
	var pages []T

	start := currentPage - 2
	end := currentPage + 2
	if start < 1 {
		start = 1
		end = 5
	}
	if end > totalPages {
		end = totalPages
		start = max(end-4, 1)
	}

	if start > 1 {
		pages = append(pages, makePage(1, buildURL(1), false, false))
		if start > 2 {
			pages = append(pages, makePage(0, "", false, true))
		}
	}

	for i := start; i <= end; i++ {
		pages = append(pages, makePage(i, buildURL(i), i == currentPage, false))
	}

	if end < totalPages {
		if end < totalPages-1 {
			pages = append(pages, makePage(0, "", false, true))
		}
		pages = append(pages, makePage(totalPages, buildURL(totalPages), false, false))
	}

	return pages
}

// CalculateTotalPages returns the number of pages, at least 1.
func CalculateTotalPages(totalItems int64, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	return max(int((totalItems+int64(perPage)-1)/int64(perPage)), 1)
}

// ClampPage ensures the page number is within [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// NormalizePagination calculates total pages and clamps the current page.
func NormalizePagination(page int, totalItems int64, perPage int) (normalizedPage, totalPages int) {
	totalPages = CalculateTotalPages(totalItems, perPage)
	return ClampPage(page, totalPages), totalPages
}

// ParsePageParam returns the "page" query parameter, or 1 when it is
// missing, malformed or below 1.
func ParsePageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
