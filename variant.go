package tracker

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
)

// ActivityVariant selects the activity payload shape
type ActivityVariant string

const (
	// ActivityDefault is a plain time block with no structured payload
	ActivityDefault ActivityVariant = "default"
	// ActivityExercise carries an exercise payload in Data
	ActivityExercise ActivityVariant = "exercise"
)

// ParseActivityVariant maps a submitted string to an ActivityVariant. Unknown
// values are an error, never a panic.
func ParseActivityVariant(s string) (ActivityVariant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "default":
		return ActivityDefault, nil
	case "exercise":
		return ActivityExercise, nil
	}
	return "", errors.New("invalid activity variant", errors.CategoryBadInput).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{"variant": s})
}

// String implements fmt.Stringer
func (v ActivityVariant) String() string {
	return string(v)
}

// ExerciseVariant selects the exercise entry shape
type ExerciseVariant string

const (
	ExerciseStrength ExerciseVariant = "strength"
	ExerciseMobility ExerciseVariant = "mobility"
	ExerciseCardio   ExerciseVariant = "cardio"
)

// ParseExerciseVariant maps a submitted string to an ExerciseVariant
func ParseExerciseVariant(s string) (ExerciseVariant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strength":
		return ExerciseStrength, nil
	case "mobility":
		return ExerciseMobility, nil
	case "cardio":
		return ExerciseCardio, nil
	}
	return "", errors.New("invalid exercise variant", errors.CategoryBadInput).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{"variant": s})
}

// ExerciseSet is a single set within a strength or mobility exercise
type ExerciseSet struct {
	Idx      int  `json:"idx"`
	Reps     *int `json:"reps,omitempty"`
	Weight   *int `json:"weight,omitempty"`
	Rest     *int `json:"rest,omitempty"`
	Duration *int `json:"duration,omitempty"`
}

// Exercise is one entry in an exercise activity. Strength and mobility
// entries carry sets; cardio entries carry duration and distance.
type Exercise struct {
	Variant  ExerciseVariant `json:"variant"`
	Title    string          `json:"title"`
	Sets     []ExerciseSet   `json:"sets,omitempty"`
	Duration int             `json:"duration,omitempty"`
	Distance int             `json:"distance,omitempty"`
}

// Validate checks the entry is coherent for its variant
func (e Exercise) Validate() error {
	if _, err := ParseExerciseVariant(string(e.Variant)); err != nil {
		return err
	}
	if e.Title == "" {
		return errors.New("exercise title is required", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	switch e.Variant {
	case ExerciseCardio:
		if e.Duration <= 0 {
			return errors.New("cardio exercise requires a duration", errors.CategoryBadInput).
				WithCode(errors.CodeBadRequest)
		}
	default:
		if len(e.Sets) == 0 {
			return errors.New(string(e.Variant)+" exercise requires at least one set", errors.CategoryBadInput).
				WithCode(errors.CodeBadRequest)
		}
	}

	return nil
}

// ActivityData is the structured payload stored on exercise activities
type ActivityData struct {
	Exercise []Exercise `json:"exercise,omitempty"`
}

// Validate checks every exercise entry
func (d *ActivityData) Validate() error {
	if d == nil {
		return nil
	}
	for _, e := range d.Exercise {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Value implements driver.Valuer so bun stores the payload as a JSON column
func (d ActivityData) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (d *ActivityData) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return fmt.Errorf("unsupported activity data type %T", src)
}
