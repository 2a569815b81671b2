package memory

import (
	"context"
	"fmt"

	"timed-quiz-service/internal/domain"
)

// StaticSupplier serves trivia from a fixed list (useful for tests/demos and offline mode).
type StaticSupplier struct {
	items []domain.RawTriviaItem
}

func NewStaticSupplier(items []domain.RawTriviaItem) *StaticSupplier {
	return &StaticSupplier{items: items}
}

func (s *StaticSupplier) FetchTrivia(_ context.Context, count int) ([]domain.RawTriviaItem, error) {
	if count > len(s.items) {
		return nil, fmt.Errorf("%w: only %d static items", domain.ErrSupply, len(s.items))
	}
	out := make([]domain.RawTriviaItem, count)
	copy(out, s.items[:count])
	return out, nil
}

// SampleTrivia is the built-in offline question set.
func SampleTrivia() []domain.RawTriviaItem {
	mc := func(q, correct string, wrong ...string) domain.RawTriviaItem {
		return domain.RawTriviaItem{Kind: domain.KindMultiple, Category: "Programming", Difficulty: "easy", Text: q, CorrectAnswer: correct, IncorrectAnswers: wrong}
	}
	return []domain.RawTriviaItem{
		mc("What is React?", "A library for building UIs", "A database", "A backend framework", "A CSS framework"),
		mc("What does JSX stand for?", "JavaScript XML", "Java Syntax Extension", "JSON XML", "JavaScript Extension"),
		mc("Which hook is used for side effects?", "useEffect", "useState", "useContext", "useMemo"),
		mc("What is the virtual DOM?", "A lightweight copy of the actual DOM", "A programming language", "A database", "A CSS framework"),
		mc("What is npm?", "Node Package Manager", "New Programming Method", "Network Protocol Manager", "Node Process Monitor"),
		mc("What is the purpose of useState?", "To manage component state", "To manage side effects", "To fetch data", "To style components"),
		mc("What is a component in React?", "A function or class that returns JSX", "A database table", "A CSS file", "A server"),
		mc("What is Next.js?", "A React framework for production", "A CSS framework", "A database", "A testing library"),
		mc("What does SSR stand for?", "Server Side Rendering", "Static Site Rendering", "Single Source Rendering", "Secure Server Rendering"),
		mc("What is TypeScript?", "A JavaScript superset with types", "A database", "A CSS preprocessor", "A testing framework"),
		mc("What is the purpose of useCallback?", "To memoize functions", "To fetch data", "To manage state", "To style components"),
		mc("What is Redux?", "A state management library", "A database", "A CSS framework", "A testing tool"),
		mc("What is API?", "Application Programming Interface", "Advanced Programming Integration", "Automated Process Interface", "Application Protocol Integration"),
		mc("What is REST?", "Representational State Transfer", "Remote Execution State Transfer", "Rapid Execution System Transfer", "Remote State Testing"),
		mc("What is Git?", "A version control system", "A database", "A programming language", "A web server"),
		{Kind: domain.KindBoolean, Category: "Programming", Difficulty: "easy", Text: "Go has a built-in garbage collector.", CorrectAnswer: "True", IncorrectAnswers: []string{"False"}},
	}
}
