package validate

import (
	"github.com/pulsefit/gateway/pkg/domain"
)

// AddExercise builds the validated input record for the addExercise
// mutation from raw arguments, failing fast on the first violation.
func AddExercise(args map[string]any) (domain.AddExerciseInput, error) {
	var in domain.AddExerciseInput
	var err error

	if in.Username, err = Username(stringArg(args, "username")); err != nil {
		return domain.AddExerciseInput{}, err
	}
	if in.ExerciseType, err = ExerciseType(stringArg(args, "exerciseType")); err != nil {
		return domain.AddExerciseInput{}, err
	}
	if in.Description, err = Description(stringArg(args, "description")); err != nil {
		return domain.AddExerciseInput{}, err
	}
	if in.Duration, err = Duration(args["duration"]); err != nil {
		return domain.AddExerciseInput{}, err
	}
	if in.Date, err = Date(stringArg(args, "date")); err != nil {
		return domain.AddExerciseInput{}, err
	}
	return in, nil
}

// UpdateExercise builds the validated input record for updateExercise.
// The id is checked before anything else and never sanitized.
func UpdateExercise(args map[string]any) (domain.UpdateExerciseInput, error) {
	var in domain.UpdateExerciseInput
	var err error

	if in.ID, err = ID(stringArg(args, "id")); err != nil {
		return domain.UpdateExerciseInput{}, err
	}
	if in.Username, err = Username(stringArg(args, "username")); err != nil {
		return domain.UpdateExerciseInput{}, err
	}
	if in.ExerciseType, err = ExerciseType(stringArg(args, "exerciseType")); err != nil {
		return domain.UpdateExerciseInput{}, err
	}
	if in.Description, err = Description(stringArg(args, "description")); err != nil {
		return domain.UpdateExerciseInput{}, err
	}
	if in.Duration, err = Duration(args["duration"]); err != nil {
		return domain.UpdateExerciseInput{}, err
	}
	if in.Date, err = Date(stringArg(args, "date")); err != nil {
		return domain.UpdateExerciseInput{}, err
	}
	return in, nil
}

// ExerciseID validates the lone id argument of deleteExercise.
func ExerciseID(args map[string]any) (string, error) {
	return ID(stringArg(args, "id"))
}

// StatsQuery builds the validated input record for ranged analytics queries.
// Start and end are optional as a pair; when either is present both must be
// valid and span at most one year.
func StatsQuery(args map[string]any) (domain.StatsQueryInput, error) {
	var in domain.StatsQueryInput
	var err error

	if in.Username, err = Username(stringArg(args, "username")); err != nil {
		return domain.StatsQueryInput{}, err
	}

	start := stringArg(args, "start")
	end := stringArg(args, "end")
	if start == "" && end == "" {
		return in, nil
	}
	if in.Start, in.End, err = DateRange(start, end); err != nil {
		return domain.StatsQueryInput{}, err
	}
	return in, nil
}

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	s, _ := args[key].(string)
	return s
}
