package models

import "time"

// Attendance is a single attendance row. StudentID is NULL for the marker row
// recorded when a session was held but nobody was present. Rows are written
// once by a submission and never updated; they disappear only through
// cascading deletes of the teacher assignment, student or group.
type Attendance struct {
	ID           string    `db:"id" json:"id"`
	Timestamp    time.Time `db:"ts" json:"timestamp"`
	AssignmentID string    `db:"assignment_id" json:"assignment_id"`
	StudentID    *int64    `db:"student_id" json:"student_id,omitempty"`
	GroupID      string    `db:"group_id" json:"group_id"`
}

// AttendanceFilter scopes report queries.
type AttendanceFilter struct {
	TeacherUserID string
	SubjectID     string
	GroupID       string
	DateFrom      *time.Time
	DateTo        *time.Time
}

// AttendanceJoinedRow is one report row joined over teacher, subject, group
// and (optionally) student.
type AttendanceJoinedRow struct {
	TeacherFIO  string    `db:"teacher_fio"`
	SubjectName string    `db:"subject_name"`
	GroupName   string    `db:"group_name"`
	StudentID   *int64    `db:"student_id"`
	StudentFIO  *string   `db:"student_fio"`
	Timestamp   time.Time `db:"ts"`
}

// AttendanceMark is a single ✔/✖ cell in the day view.
type AttendanceMark struct {
	FIO     string `json:"fio"`
	Present string `json:"present"`
}

// AttendanceMatrixStudent is one row of the attendance matrix.
type AttendanceMatrixStudent struct {
	FIO        string            `json:"fio"`
	Attendance map[string]string `json:"attendance"`
}

// AttendanceMatrixGroup aggregates one (teacher, subject, group) block.
type AttendanceMatrixGroup struct {
	TeacherFIO  string                    `json:"teacher_fio"`
	SubjectName string                    `json:"lesson_name"`
	GroupName   string                    `json:"groupname"`
	Students    []AttendanceMatrixStudent `json:"students"`
	Dates       []string                  `json:"dates"`
}

// AttendanceMatrix is the full report payload.
type AttendanceMatrix struct {
	Groups []AttendanceMatrixGroup `json:"attendance_by_group"`
}
