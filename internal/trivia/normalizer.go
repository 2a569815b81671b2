// Package trivia turns raw upstream trivia items into attempt questions.
package trivia

import (
	"fmt"
	"html"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"timed-quiz-service/internal/domain"
)

// Normalizer decodes, shuffles and identifies raw trivia items.
// It is safe for concurrent use.
type Normalizer struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	newID func() int64
}

func NewNormalizer() *Normalizer {
	return NewNormalizerWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewNormalizerWithSource fixes the shuffle source, for deterministic tests.
func NewNormalizerWithSource(src rand.Source) *Normalizer {
	return &Normalizer{
		rnd:   rand.New(src),
		newID: func() int64 { return int64(uuid.New().ID()) },
	}
}

// Normalize converts the first count usable items. Items with a blank text, a blank
// correct answer, no distinct incorrect answer, or a malformed true/false answer are skipped.
// It fails with domain.ErrSupply when fewer than count items are usable.
func (n *Normalizer) Normalize(items []domain.RawTriviaItem, count int) ([]domain.Question, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: requested %d questions", domain.ErrSupply, count)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	questions := make([]domain.Question, 0, count)
	seen := make(map[int64]struct{}, count)
	for _, item := range items {
		if len(questions) == count {
			break
		}
		q, ok := n.build(item)
		if !ok {
			continue
		}
		q.ID = n.uniqueID(seen)
		questions = append(questions, q)
	}
	if len(questions) < count {
		return nil, fmt.Errorf("%w: %d usable of %d requested", domain.ErrSupply, len(questions), count)
	}
	return questions, nil
}

func (n *Normalizer) build(item domain.RawTriviaItem) (domain.Question, bool) {
	text := decode(item.Text)
	correct := decode(item.CorrectAnswer)
	if text == "" || correct == "" {
		return domain.Question{}, false
	}

	var options []string
	if item.Kind == domain.KindBoolean {
		if correct != "True" && correct != "False" {
			return domain.Question{}, false
		}
		options = []string{"True", "False"}
	} else {
		options = make([]string, 0, len(item.IncorrectAnswers)+1)
		dup := map[string]struct{}{correct: {}}
		for _, raw := range item.IncorrectAnswers {
			opt := decode(raw)
			if _, ok := dup[opt]; ok || opt == "" {
				continue
			}
			dup[opt] = struct{}{}
			options = append(options, opt)
		}
		if len(options) == 0 {
			return domain.Question{}, false
		}
		options = append(options, correct)
	}

	n.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	idx := -1
	for i, opt := range options {
		if opt == correct {
			idx = i
			break
		}
	}
	return domain.Question{
		Text:               text,
		Options:            options,
		CorrectOptionIndex: idx,
	}, true
}

func (n *Normalizer) uniqueID(seen map[int64]struct{}) int64 {
	for {
		id := n.newID()
		if _, dup := seen[id]; dup || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		return id
	}
}

func decode(s string) string {
	return strings.TrimSpace(html.UnescapeString(s))
}
