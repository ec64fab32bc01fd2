package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"finsight/internal/core"
	"finsight/internal/session"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// pathIndex reads the {index} path value as a non-negative int.
func pathIndex(r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// userMessage turns validation errors into text for the notification toast.
// ok is false for errors that are not the user's fault.
func userMessage(err error) (msg string, ok bool) {
	switch {
	case errors.Is(err, core.ErrEmptyName):
		return "Item name is required", true
	case errors.Is(err, core.ErrNegativePrice):
		return "Price cannot be negative", true
	case errors.Is(err, core.ErrInvalidPrice):
		return "Enter a valid price, e.g. 12.34", true
	case errors.Is(err, core.ErrInvalidDate):
		return "Enter the date as YYYY-MM-DD", true
	case errors.Is(err, core.ErrInvalidCategory):
		return "Choose one of: " + categoryNames(), true
	case errors.Is(err, core.ErrInvalidWantOrNeed):
		return "Choose Want or Need", true
	case errors.Is(err, session.ErrNegativeBudget):
		return "Budget goal cannot be negative", true
	case errors.Is(err, session.ErrItemIndex):
		return "That item no longer exists. Refresh the page and try again.", true
	}
	return "", false
}

func categoryNames() string {
	cats := core.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// mostSevere picks the notice a toast should show when an operation
// produced several.
func mostSevere(notices []core.Notice) (core.Notice, bool) {
	rank := map[core.NoticeLevel]int{
		core.NoticeSuccess: 1,
		core.NoticeInfo:    2,
		core.NoticeWarning: 3,
		core.NoticeError:   4,
	}
	var best core.Notice
	found := false
	for _, n := range notices {
		if !found || rank[n.Level] > rank[best.Level] {
			best, found = n, true
		}
	}
	return best, found
}
