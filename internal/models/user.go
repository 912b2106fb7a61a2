package models

// User is one roster entry: a candidate together with the tests they
// registered for and the tests they actually gave.
type User struct {
	ID              string           `json:"id" db:"id"`
	Username        string           `json:"username" db:"username"`
	RegisteredTests []RegisteredTest `json:"registered_tests,omitempty"`
	GivenTests      []GivenTest      `json:"given_tests,omitempty"`
}

type RegisteredTest struct {
	TestID   string `json:"test_id" db:"test_id"`
	CenterID string `json:"center_id,omitempty" db:"center_id"`
	City     string `json:"city,omitempty" db:"city"`
	State    string `json:"state,omitempty" db:"state"`
	TestName string `json:"test_name,omitempty" db:"test_name"`
}

type GivenTest struct {
	TestID string `json:"test_id" db:"test_id"`
	Score  int    `json:"score" db:"score"`
	City   string `json:"city,omitempty" db:"city"`
	State  string `json:"state,omitempty" db:"state"`
}

// HasRegistered reports whether the user counts as registered for the test.
// A given-test entry without an explicit registration record still counts.
func (u *User) HasRegistered(testID string) bool {
	for _, t := range u.RegisteredTests {
		if t.TestID == testID {
			return true
		}
	}
	return u.HasGiven(testID)
}

func (u *User) HasGiven(testID string) bool {
	for _, t := range u.GivenTests {
		if t.TestID == testID {
			return true
		}
	}
	return false
}
