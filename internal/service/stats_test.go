package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ansh212/Onlineportal/internal/models"
)

const statsTestID = "3f2c8f9a-1d54-4e8b-9a7c-2b1d0e6f5a43"

func registeredUser(id, testID string) models.User {
	return models.User{
		ID:              id,
		Username:        "user-" + id,
		RegisteredTests: []models.RegisteredTest{{TestID: testID}},
	}
}

func givenUser(id, testID string) models.User {
	u := registeredUser(id, testID)
	u.GivenTests = []models.GivenTest{{TestID: testID, Score: 80}}
	return u
}

func TestComputeParticipation(t *testing.T) {
	tests := []struct {
		name   string
		roster []models.User
		want   ParticipationStats
	}{
		{
			name:   "empty roster",
			roster: nil,
			want:   ParticipationStats{},
		},
		{
			name: "registered and given counted separately",
			roster: []models.User{
				registeredUser("u1", statsTestID),
				registeredUser("u2", statsTestID),
				givenUser("u3", statsTestID),
			},
			want: ParticipationStats{Registered: 3, Given: 1, NotGiven: 2},
		},
		{
			name: "given without registration still counts as registered",
			roster: []models.User{
				{
					ID:         "u1",
					GivenTests: []models.GivenTest{{TestID: statsTestID}},
				},
			},
			want: ParticipationStats{Registered: 1, Given: 1, NotGiven: 0},
		},
		{
			name: "registered and given is one candidate, not two",
			roster: []models.User{
				givenUser("u1", statsTestID),
			},
			want: ParticipationStats{Registered: 1, Given: 1, NotGiven: 0},
		},
		{
			name: "other tests are ignored",
			roster: []models.User{
				registeredUser("u1", "b6c1d2e3-0000-4000-8000-000000000001"),
				givenUser("u2", "b6c1d2e3-0000-4000-8000-000000000002"),
			},
			want: ParticipationStats{},
		},
		{
			name: "duplicate refs for the same test do not double count",
			roster: []models.User{
				{
					ID: "u1",
					RegisteredTests: []models.RegisteredTest{
						{TestID: statsTestID},
						{TestID: statsTestID},
					},
					GivenTests: []models.GivenTest{{TestID: statsTestID}},
				},
			},
			want: ParticipationStats{Registered: 1, Given: 1, NotGiven: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeParticipation(tt.roster, statsTestID)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.NotGiven, 0)
		})
	}
}
