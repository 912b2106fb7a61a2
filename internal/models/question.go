package models

import "time"

type Test struct {
	ID        string     `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	Questions []Question `json:"questions,omitempty"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Question metadata as sent to the classifier. The json tags match the
// prediction service contract exactly.
type Question struct {
	ID            string   `json:"id" db:"id"`
	Text          string   `json:"text" db:"question_text"`
	Options       []string `json:"options" db:"options"`
	CorrectAnswer int      `json:"correct_answer" db:"correct_answer"`
}
