package domain

// AddExerciseInput is the validated argument record for the addExercise
// mutation. Constructed fresh per request by the contract builder and
// never mutated afterwards.
type AddExerciseInput struct {
	Username     string
	ExerciseType string
	Description  string
	Duration     int
	Date         string
}

// UpdateExerciseInput is the validated argument record for updateExercise.
type UpdateExerciseInput struct {
	ID           string
	Username     string
	ExerciseType string
	Description  string
	Duration     int
	Date         string
}

// StatsQueryInput is the validated argument record for ranged analytics
// queries. Start and End are ISO-8601 dates spanning at most one year.
type StatsQueryInput struct {
	Username string
	Start    string
	End      string
}
