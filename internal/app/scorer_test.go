package app_test

import (
	"reflect"
	"testing"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

func TestScoreExample(t *testing.T) {
	questions := abcQuiz().Questions
	score, details := app.Score(questions, map[int]string{0: "A", 1: "X", 2: "B"})

	if score != 2 {
		t.Fatalf("expected score 2, got %d", score)
	}
	if len(details) != 3 {
		t.Fatalf("expected 3 detail rows, got %d", len(details))
	}
	if details[1].SelectedOption != "X" || details[1].CorrectAnswer != "C" || details[1].Correct() {
		t.Fatalf("expected row 2 incorrect with X selected, got %+v", details[1])
	}
	if !details[0].Correct() || !details[2].Correct() {
		t.Fatalf("expected rows 1 and 3 correct, got %+v", details)
	}
}

func TestScoreUnansweredSentinel(t *testing.T) {
	questions := abcQuiz().Questions
	score, details := app.Score(questions, map[int]string{0: "A"})

	if score != 1 {
		t.Fatalf("expected score 1, got %d", score)
	}
	for _, i := range []int{1, 2} {
		if details[i].SelectedOption != domain.Unanswered {
			t.Fatalf("row %d: expected unanswered sentinel, got %q", i, details[i].SelectedOption)
		}
	}
}

func TestScoreIsDeterministicAndBounded(t *testing.T) {
	questions := abcQuiz().Questions
	inputs := []map[int]string{
		nil,
		{},
		{0: "A", 1: "C", 2: "B"},
		{0: "B", 1: "B", 2: "B"},
		{0: "a", 1: " C", 2: "B "},
		{7: "A", -1: "C"},
	}
	for _, answers := range inputs {
		s1, d1 := app.Score(questions, answers)
		s2, d2 := app.Score(questions, answers)
		if s1 != s2 || !reflect.DeepEqual(d1, d2) {
			t.Fatalf("scoring not deterministic for %v", answers)
		}
		if s1 < 0 || s1 > len(questions) {
			t.Fatalf("score %d out of bounds for %v", s1, answers)
		}
		if len(d1) != len(questions) {
			t.Fatalf("expected one row per question, got %d", len(d1))
		}
		correct := 0
		for _, d := range d1 {
			if d.Correct() {
				correct++
			}
		}
		if correct != s1 {
			t.Fatalf("detail rows marked correct (%d) disagree with score %d for %v", correct, s1, answers)
		}
	}
}

func TestScoreExactMatchOnly(t *testing.T) {
	questions := abcQuiz().Questions
	score, _ := app.Score(questions, map[int]string{0: "a", 1: "C ", 2: "b"})
	if score != 0 {
		t.Fatalf("expected no normalization, got score %d", score)
	}
}

func TestScoreMalformedCorrectOptionNeverAwarded(t *testing.T) {
	questions := []domain.Question{{Text: "broken", Options: []string{"A", "B"}, CorrectOption: "Z"}}
	score, details := app.Score(questions, map[int]string{0: "A"})
	if score != 0 || details[0].Correct() {
		t.Fatalf("expected no point for malformed question, got %d %+v", score, details[0])
	}
}

func TestScoreOptionSpelledLikeSentinel(t *testing.T) {
	questions := []domain.Question{
		{Text: "odd", Options: []string{domain.Unanswered, "other"}, CorrectOption: domain.Unanswered},
		{Text: "skipped", Options: []string{"a", "b"}, CorrectOption: "a"},
	}
	score, details := app.Score(questions, map[int]string{0: domain.Unanswered})

	if score != 1 {
		t.Fatalf("expected score 1, got %d", score)
	}
	if !details[0].Correct() {
		t.Fatalf("expected row 1 correct, got %+v", details[0])
	}
	if details[1].Correct() {
		t.Fatalf("expected skipped row incorrect, got %+v", details[1])
	}
}
