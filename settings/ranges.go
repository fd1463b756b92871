package settings

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// Public types (alphabetical)

// Merge is one entry of a merge list: the label as written by the user and
// the 1-based marker pair numbers it concatenates, in order.
type Merge struct {
	Label string
	Pairs []int
}

// Public variables (alphabetical)

// ErrInvalidRange is returned for marker pair lists that are not comma
// separated numbers and n-m ranges.
var ErrInvalidRange = errors.New("settings: invalid marker pair list")

// Private variables (alphabetical)

var (
	rangeListPattern = regexp.MustCompile(`^((\d{1,2})|(\d{1,2}-\d{1,2})){1}(,((\d{1,2})|(\d{1,2}-\d{1,2})))*$`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// Public functions (alphabetical)

// CleanFileName replaces or removes the characters the host file system
// does not accept in file names.
func CleanFileName(name string) string {
	return cleanFileNameFor(runtime.GOOS, name)
}

// MergeLists parses a ";" separated list of marker pair lists.
func MergeLists(s string) ([]Merge, error) {
	var merges []Merge
	for _, label := range strings.Split(s, ";") {
		if strings.TrimSpace(label) == "" {
			continue
		}
		pairs, err := ParseRanges(label)
		if err != nil {
			return nil, err
		}
		merges = append(merges, Merge{Label: label, Pairs: pairs})
	}
	return merges, nil
}

// ParseRanges expands a marker pair list such as "1-3,5,9-7" into the
// 1-based pair numbers in the order written. Descending ranges count down.
func ParseRanges(csv string) ([]int, error) {
	csv = whitespace.ReplaceAllString(csv, "")
	csv = strings.TrimRight(csv, ",")
	if !rangeListPattern.MatchString(csv) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, csv)
	}

	var pairs []int
	for _, item := range strings.Split(csv, ",") {
		lo, hi, isRange := strings.Cut(item, "-")
		start, _ := strconv.Atoi(lo)
		if !isRange {
			pairs = append(pairs, start)
			continue
		}
		end, _ := strconv.Atoi(hi)
		if start <= end {
			for i := start; i <= end; i++ {
				pairs = append(pairs, i)
			}
			continue
		}
		for i := start; i >= max(end, 1); i-- {
			pairs = append(pairs, i)
		}
	}
	return pairs, nil
}

// Queue returns the sorted 0-based indices of the marker pairs to process
// out of n: every pair named by only (all pairs when only is empty) that
// except does not name.
func Queue(n int, only, except string) ([]int, error) {
	selected := make(map[int]bool, n)
	if only == "" {
		for i := 0; i < n; i++ {
			selected[i] = true
		}
	} else {
		pairs, err := ParseRanges(only)
		if err != nil {
			return nil, fmt.Errorf("--only: %w", err)
		}
		for _, p := range pairs {
			selected[p-1] = true
		}
	}

	if except != "" {
		pairs, err := ParseRanges(except)
		if err != nil {
			return nil, fmt.Errorf("--except: %w", err)
		}
		for _, p := range pairs {
			delete(selected, p-1)
		}
	}

	queue := make([]int, 0, len(selected))
	for i := range selected {
		if i >= 0 && i < n {
			queue = append(queue, i)
		}
	}
	sort.Ints(queue)
	return queue, nil
}

// Private functions (alphabetical)

func cleanFileNameFor(goos, name string) string {
	switch goos {
	case "windows":
		name = strings.NewReplacer("*", "", "?", "", `"`, "", "<", "", ">", "", "\x00", "").Replace(name)
		return strings.NewReplacer("/", "_", "|", "_", `\`, "_", ":", "_").Replace(name)
	case "darwin":
		return strings.NewReplacer(":", "_", "\x00", "_").Replace(name)
	case "linux":
		return strings.NewReplacer("/", "_", "\x00", "_").Replace(name)
	}
	return name
}
