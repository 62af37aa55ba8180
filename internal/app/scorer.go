package app

import "quiz-attempt-service/internal/domain"

// Score maps answers (question index -> selected option) onto the question list.
// A point is awarded only on exact string equality with the correct option.
// The detail list always holds one row per question, in question order.
func Score(questions []domain.Question, answers map[int]string) (int, []domain.AnswerDetail) {
	score := 0
	details := make([]domain.AnswerDetail, 0, len(questions))
	for i, question := range questions {
		selected, ok := answers[i]
		if !ok {
			selected = domain.Unanswered
		} else if selected == question.CorrectOption {
			score++
		}
		details = append(details, domain.AnswerDetail{
			QuestionText:   question.Text,
			SelectedOption: selected,
			CorrectAnswer:  question.CorrectOption,
		})
	}
	return score, details
}
