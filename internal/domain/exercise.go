package domain

// Exercise is an entry of the exercise catalog a user picks from when
// logging a workout.
type Exercise struct {
	Name         string        `json:"name"`
	MuscleGroups []MuscleGroup `json:"muscleGroups"`
}

// CustomExercise is a user-defined catalog entry stored under
// users/{uid}/customExercises.
type CustomExercise struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	MuscleGroups []MuscleGroup `json:"muscleGroups"`
}

// DefaultExercises is the built-in catalog shown to every user,
// alongside their custom exercises.
var DefaultExercises = []Exercise{
	{Name: "Bench Press", MuscleGroups: []MuscleGroup{MuscleChest}},
	{Name: "Push-Up", MuscleGroups: []MuscleGroup{MuscleChest}},
	{Name: "Pull-Up", MuscleGroups: []MuscleGroup{MuscleBack}},
	{Name: "Deadlift", MuscleGroups: []MuscleGroup{MuscleBack}},
	{Name: "Squat", MuscleGroups: []MuscleGroup{MuscleLegs}},
	{Name: "Lunge", MuscleGroups: []MuscleGroup{MuscleLegs}},
	{Name: "Shoulder Press", MuscleGroups: []MuscleGroup{MuscleShoulders}},
	{Name: "Lateral Raise", MuscleGroups: []MuscleGroup{MuscleShoulders}},
	{Name: "Bicep Curl", MuscleGroups: []MuscleGroup{MuscleArms}},
	{Name: "Tricep Dip", MuscleGroups: []MuscleGroup{MuscleArms}},
	{Name: "Plank", MuscleGroups: []MuscleGroup{MuscleCore}},
	{Name: "Sit-Up", MuscleGroups: []MuscleGroup{MuscleCore}},
}
