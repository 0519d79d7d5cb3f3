package school

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/jattu8602/presentsirweb-sub001/internal/models"
)

const maxHandleBase = 30

var ErrHandleExhausted = errors.New("school: could not allocate a unique handle")

// suffix rounds: first short 4-digit suffixes, then 8-digit ones.
var handleRounds = []struct {
	digits int
	tries  int
}{
	{4, 10},
	{8, 10},
}

// BaseHandle derives a login handle from the local part of an email:
// lowercased, alphanumerics only.
func BaseHandle(email string) string {
	local := strings.ToLower(strings.SplitN(email, "@", 2)[0])

	var b strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	h := b.String()
	if h == "" {
		h = "institution"
	}
	if len(h) > maxHandleBase {
		h = h[:maxHandleBase]
	}
	return h
}

// uniqueHandle returns base if free, otherwise base plus a random numeric
// suffix. Soft-deleted accounts still hold their handle.
func uniqueHandle(tx *gorm.DB, base string, intn func(int) int) (string, error) {
	taken := func(h string) (bool, error) {
		var n int64
		err := tx.Unscoped().Model(&models.Account{}).Where("handle = ?", h).Count(&n).Error
		return n > 0, err
	}

	ok, err := taken(base)
	if err != nil {
		return "", err
	}
	if !ok {
		return base, nil
	}

	for _, round := range handleRounds {
		limit := pow10(round.digits)
		for i := 0; i < round.tries; i++ {
			h := fmt.Sprintf("%s%0*d", base, round.digits, intn(limit))
			ok, err := taken(h)
			if err != nil {
				return "", err
			}
			if !ok {
				return h, nil
			}
		}
	}
	return "", ErrHandleExhausted
}

func pow10(n int) int {
	p := 1
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}
