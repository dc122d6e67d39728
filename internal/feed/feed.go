// Package feed holds the pure filtering and ranking over the post
// collection. Everything here is a function of its inputs and a caller
// supplied "now"; nothing persists across renders.
package feed

import (
	"sort"
	"time"

	"github.com/timkeo/timkeo-client/internal/models"
)

type TimeWindow string

const (
	WindowAll      TimeWindow = "all"
	WindowToday    TimeWindow = "today"
	WindowNext3Day TimeWindow = "next3days"
)

const SportAll = "all"

type Filter struct {
	Sport         string
	Window        TimeWindow
	FavoritesOnly bool
}

// Apply filters and ranks the feed. Favorites partition first, each
// tier ordered by createdAt descending; without favorites the whole
// list sorts by createdAt descending. Ties keep input order, the sort
// is stable and no secondary key is defined.
func Apply(posts []models.Post, f Filter, favorites []string, now time.Time) []models.Post {
	result := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if f.Sport != "" && f.Sport != SportAll && p.Sport != f.Sport {
			continue
		}
		if !inWindow(p.StartTime, f.Window, now) {
			continue
		}
		result = append(result, p)
	}

	fav := make(map[string]bool, len(favorites))
	for _, s := range favorites {
		fav[s] = true
	}

	if len(fav) > 0 {
		sort.SliceStable(result, func(i, j int) bool {
			pi, pj := fav[result[i].Sport], fav[result[j].Sport]
			if pi != pj {
				return pi
			}
			return result[i].CreatedAt.After(result[j].CreatedAt)
		})
		if f.FavoritesOnly {
			kept := result[:0]
			for _, p := range result {
				if fav[p.Sport] {
					kept = append(kept, p)
				}
			}
			result = kept
		}
	} else {
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		})
	}
	return result
}

// inWindow evaluates the start time against the local wall-clock day.
// "today" spans the whole current local day; "next3days" spans now
// through now+72h inclusive.
func inWindow(start time.Time, w TimeWindow, now time.Time) bool {
	switch w {
	case WindowToday:
		s, n := start.Local(), now.Local()
		return s.Year() == n.Year() && s.Month() == n.Month() && s.Day() == n.Day()
	case WindowNext3Day:
		limit := now.Add(3 * 24 * time.Hour)
		return !start.Before(now) && !start.After(limit)
	default:
		return true
	}
}

// Sports returns the distinct sports present in the feed, in first-seen
// order, for the filter selector.
func Sports(posts []models.Post) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range posts {
		if p.Sport == "" || seen[p.Sport] {
			continue
		}
		seen[p.Sport] = true
		out = append(out, p.Sport)
	}
	return out
}
