package predict

import (
	"sort"
	"strings"

	"github.com/lisanmuaddib/twitoff/pkg/apperr"
)

const (
	// MinCandidates is the smallest number of distinct users a prediction compares
	MinCandidates = 2
	// MaxCandidates is the number of user slots the compare form offers
	MaxCandidates = 4
)

// Selection is a validated prediction request
type Selection struct {
	// Usernames are distinct, sorted case-insensitively
	Usernames []string
	Text      string
}

// ParseSelection validates the raw user slots and hypothetical text. Blank
// slots are ignored and repeated names count once; at least two distinct
// names and a non-blank text are required.
func ParseSelection(slots []string, text string) (Selection, error) {
	seen := make(map[string]struct{}, len(slots))
	var users []string
	for _, slot := range slots {
		name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(slot), "@"))
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		users = append(users, name)
	}

	if len(users) < MinCandidates {
		return Selection{}, apperr.New(apperr.CodeInsufficientSelection, "Please select two or more different users", nil)
	}
	if len(users) > MaxCandidates {
		return Selection{}, apperr.New(apperr.CodeInsufficientSelection, "Please select at most four users", nil)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Selection{}, apperr.New(apperr.CodeEmptyInput, "Please enter a hypothetical tweet", nil)
	}

	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i]) < strings.ToLower(users[j])
	})

	return Selection{Usernames: users, Text: text}, nil
}
