package models

import "time"

// Education forms carried over from the enrollment paperwork; they drive the
// display-id prefix (Б for budget places, В for fee-paying).
const (
	EducationFormBudget = "бюджетная"
	EducationFormPaid   = "внебюджетная"
)

// Student represents a learner enrolled in a group. ID is the student card
// number assigned by the institution, not a generated key. FaceEncoding holds
// the JSON-serialized vector produced by the face engine at enrollment, or
// NULL when no usable photo was provided.
type Student struct {
	ID            int64     `db:"id" json:"id"`
	FIO           string    `db:"fio" json:"fio"`
	Mail          string    `db:"mail" json:"mail"`
	PhotoPath     string    `db:"photo_path" json:"-"`
	BirthDate     time.Time `db:"birth_date" json:"birth_date"`
	EducationForm string    `db:"education_form" json:"education_form"`
	FaceEncoding  *string   `db:"face_encoding" json:"-"`
	GroupID       string    `db:"group_id" json:"group_id"`
}

// StudentDetail enriches a student with its group name.
type StudentDetail struct {
	Student
	GroupName string `db:"group_name" json:"group"`
}

// DisplayID renders the human-facing student id, e.g. Б10-01234.
func (s Student) DisplayID() string {
	prefix := "В"
	if s.EducationForm == EducationFormBudget {
		prefix = "Б"
	}
	raw := formatID(s.ID)
	if len(raw) <= 2 {
		return prefix + raw
	}
	return prefix + raw[:2] + "-" + raw[2:]
}

func formatID(id int64) string {
	if id == 0 {
		return "0"
	}
	var digits []byte
	for id > 0 {
		digits = append([]byte{byte('0' + id%10)}, digits...)
		id /= 10
	}
	return string(digits)
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	GroupID string
	Search  string
}

// StudentRosterRow is the subset of student data the roster loader needs.
type StudentRosterRow struct {
	ID           int64  `db:"id"`
	FaceEncoding string `db:"face_encoding"`
}
