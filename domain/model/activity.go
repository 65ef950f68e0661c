package model

import "strings"

const UnnamedActivity = "Unnamed Activity"

// Activity is a single recorded exercise session as returned by the Strava API
type Activity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DisplayName returns the activity name, falling back when Strava omits it
func (a Activity) DisplayName() string {
	if strings.TrimSpace(a.Name) == "" {
		return UnnamedActivity
	}
	return a.Name
}

// Athlete is an athlete who gave kudos to one of the operator's activities
type Athlete struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

func (a Athlete) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
