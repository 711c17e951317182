package listing

import (
	"strconv"
	"strings"
)

// PageSize is the fixed number of tasks per page.
const PageSize = 10

// Window is the resolved slice of a result set.
type Window struct {
	Number   int
	NumPages int
	Offset   int
	Limit    int
}

// Paginate resolves a raw page number against total items. It never fails:
// a non-integer page is page 1 and out-of-range numbers clamp to the
// nearest valid page. An empty result still has one (empty) page.
func Paginate(raw string, total int64, perPage int) Window {
	numPages := 1
	if total > 0 {
		numPages = int((total + int64(perPage) - 1) / int64(perPage))
	}

	number, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err != nil:
		number = 1
	case number < 1:
		number = 1
	case number > numPages:
		number = numPages
	}

	return Window{
		Number:   number,
		NumPages: numPages,
		Offset:   (number - 1) * perPage,
		Limit:    perPage,
	}
}
