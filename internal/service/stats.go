package service

import "github.com/Ansh212/Onlineportal/internal/models"

// ParticipationStats are the roster counts for one test. Registered is the
// union of "registered for" and "gave": a candidate who gave the test
// without a registration record still counts, and nobody counts twice.
type ParticipationStats struct {
	Registered int
	Given      int
	NotGiven   int
}

func ComputeParticipation(roster []models.User, testID string) ParticipationStats {
	var stats ParticipationStats

	for i := range roster {
		user := &roster[i]

		if user.HasRegistered(testID) {
			stats.Registered++
		}
		if user.HasGiven(testID) {
			stats.Given++
		}
	}

	stats.NotGiven = stats.Registered - stats.Given
	return stats
}
