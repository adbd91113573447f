package domain

import "fmt"

// State is the scheduling stage of a card. The values mirror the FSRS
// engine's own states and are stored as small integers.
type State int

const (
	StateNew State = iota
	StateLearning
	StateReview
	StateRelearning
)

var stateNames = [...]string{"New", "Learning", "Review", "Relearning"}

// ParseState validates a stored state value.
func ParseState(n int64) (State, error) {
	if n < int64(StateNew) || n > int64(StateRelearning) {
		return 0, Validationf("unknown card state %d", n)
	}
	return State(n), nil
}

func (s State) String() string {
	if s >= StateNew && s <= StateRelearning {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Grade is the user's response to a card review, using FSRS ratings.
type Grade int

const (
	GradeAgain Grade = iota + 1
	GradeHard
	GradeGood
	GradeEasy
)

var gradeNames = [...]string{GradeAgain: "Again", GradeHard: "Hard", GradeGood: "Good", GradeEasy: "Easy"}

// ParseGrade validates a grade received from the UI layer.
func ParseGrade(n int64) (Grade, error) {
	if n < int64(GradeAgain) || n > int64(GradeEasy) {
		return 0, Validationf("unknown review grade %d", n)
	}
	return Grade(n), nil
}

func (g Grade) String() string {
	if g >= GradeAgain && g <= GradeEasy {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}
