package tracker_test

import (
	"encoding/json"
	"testing"

	"github.com/goliatone/go-tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActivityVariant(t *testing.T) {
	t.Run("accepts known variants", func(t *testing.T) {
		v, err := tracker.ParseActivityVariant("default")
		require.NoError(t, err)
		assert.Equal(t, tracker.ActivityDefault, v)

		v, err = tracker.ParseActivityVariant("exercise")
		require.NoError(t, err)
		assert.Equal(t, tracker.ActivityExercise, v)
	})

	t.Run("is case insensitive", func(t *testing.T) {
		v, err := tracker.ParseActivityVariant("  Exercise ")
		require.NoError(t, err)
		assert.Equal(t, tracker.ActivityExercise, v)
	})

	t.Run("returns an error for unknown values", func(t *testing.T) {
		_, err := tracker.ParseActivityVariant("meditation")
		assert.Error(t, err)
	})
}

func TestParseExerciseVariant(t *testing.T) {
	for _, name := range []string{"strength", "mobility", "cardio"} {
		v, err := tracker.ParseExerciseVariant(name)
		require.NoError(t, err)
		assert.Equal(t, name, string(v))
	}

	_, err := tracker.ParseExerciseVariant("yoga")
	assert.Error(t, err)
}

func TestExercise_Validate(t *testing.T) {
	reps := 8

	t.Run("strength requires sets", func(t *testing.T) {
		e := tracker.Exercise{Variant: tracker.ExerciseStrength, Title: "Deadlift"}
		assert.Error(t, e.Validate())

		e.Sets = []tracker.ExerciseSet{{Idx: 0, Reps: &reps}}
		assert.NoError(t, e.Validate())
	})

	t.Run("cardio requires a duration", func(t *testing.T) {
		e := tracker.Exercise{Variant: tracker.ExerciseCardio, Title: "Row"}
		assert.Error(t, e.Validate())

		e.Duration = 1200
		assert.NoError(t, e.Validate())
	})

	t.Run("title is required", func(t *testing.T) {
		e := tracker.Exercise{
			Variant: tracker.ExerciseMobility,
			Sets:    []tracker.ExerciseSet{{Idx: 0}},
		}
		assert.Error(t, e.Validate())
	})

	t.Run("unknown variant is rejected", func(t *testing.T) {
		e := tracker.Exercise{Variant: "yoga", Title: "Flow"}
		assert.Error(t, e.Validate())
	})
}

func TestActivityData_Scan(t *testing.T) {
	payload := `{"exercise":[{"variant":"cardio","title":"Row","duration":1200,"distance":2500}]}`

	t.Run("scans a string column", func(t *testing.T) {
		data := &tracker.ActivityData{}
		require.NoError(t, data.Scan(payload))

		require.Len(t, data.Exercise, 1)
		assert.Equal(t, tracker.ExerciseCardio, data.Exercise[0].Variant)
		assert.Equal(t, 2500, data.Exercise[0].Distance)
	})

	t.Run("scans a byte column", func(t *testing.T) {
		data := &tracker.ActivityData{}
		require.NoError(t, data.Scan([]byte(payload)))
		require.Len(t, data.Exercise, 1)
	})

	t.Run("nil column leaves the value empty", func(t *testing.T) {
		data := &tracker.ActivityData{}
		require.NoError(t, data.Scan(nil))
		assert.Empty(t, data.Exercise)
	})

	t.Run("rejects other column types", func(t *testing.T) {
		data := &tracker.ActivityData{}
		assert.Error(t, data.Scan(42))
	})
}

func TestActivityData_Value(t *testing.T) {
	reps := 5
	weight := 100
	data := tracker.ActivityData{
		Exercise: []tracker.Exercise{{
			Variant: tracker.ExerciseStrength,
			Title:   "Squat",
			Sets:    []tracker.ExerciseSet{{Idx: 0, Reps: &reps, Weight: &weight}},
		}},
	}

	value, err := data.Value()
	require.NoError(t, err)

	raw, ok := value.(string)
	require.True(t, ok)

	decoded := &tracker.ActivityData{}
	require.NoError(t, json.Unmarshal([]byte(raw), decoded))
	require.Len(t, decoded.Exercise, 1)
	assert.Equal(t, "Squat", decoded.Exercise[0].Title)
}

func TestParseRole(t *testing.T) {
	t.Run("accepts known roles", func(t *testing.T) {
		role, err := tracker.ParseRole("admin")
		require.NoError(t, err)
		assert.True(t, role.IsAdmin())

		role, err = tracker.ParseRole("User")
		require.NoError(t, err)
		assert.Equal(t, tracker.RoleUser, role)
		assert.False(t, role.IsAdmin())
	})

	t.Run("returns an error for unknown roles", func(t *testing.T) {
		_, err := tracker.ParseRole("superuser")
		assert.Error(t, err)
	})
}
