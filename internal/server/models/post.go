package models

import "time"

type Post struct {
	ID         int64
	Title      string
	Content    string
	DatePosted time.Time
	UserID     int64

	// Author is filled by listing queries that join users.
	Author *User
}

// PostPage is one slice of a paginated listing.
type PostPage struct {
	Items   []*Post
	Page    int
	PerPage int
	Total   int

	// Author is set for per-user listings.
	Author *User
}

// Pages returns the number of pages needed to show Total items.
func (p *PostPage) Pages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p *PostPage) HasPrev() bool { return p.Page > 1 }
func (p *PostPage) HasNext() bool { return p.Page < p.Pages() }
func (p *PostPage) PrevNum() int  { return p.Page - 1 }
func (p *PostPage) NextNum() int  { return p.Page + 1 }

// IterPages lists the page numbers a pager should show: leftEdge pages at the
// start, rightEdge at the end, and a window around the current page. Gaps are
// reported as 0.
func (p *PostPage) IterPages(leftEdge, leftCurrent, rightCurrent, rightEdge int) []int {
	pages := p.Pages()
	var out []int
	last := 0
	for num := 1; num <= pages; num++ {
		if num <= leftEdge ||
			(num > p.Page-leftCurrent-1 && num < p.Page+rightCurrent) ||
			num > pages-rightEdge {
			if last+1 != num {
				out = append(out, 0)
			}
			out = append(out, num)
			last = num
		}
	}
	return out
}
