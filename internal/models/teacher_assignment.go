package models

import "time"

// TeacherAssignment grants a user authority over attendance for one subject.
// The (user, subject) pair is unique.
type TeacherAssignment struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherAssignmentDetail enriches an assignment with display names.
type TeacherAssignmentDetail struct {
	TeacherAssignment
	TeacherFIO  string `db:"teacher_fio" json:"teacher_fio"`
	SubjectName string `db:"subject_name" json:"subject_name"`
}
