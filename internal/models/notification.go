package models

// AttendanceNotification is the payload of an attendance confirmation job.
type AttendanceNotification struct {
	AttendanceID string           `json:"attendanceId"`
	To           string           `json:"to"`
	StudentName  string           `json:"studentName"`
	LessonDate   string           `json:"lessonDate"`
	StartTime    string           `json:"startTime"`
	LessonTopic  string           `json:"lessonTopic"`
	Status       AttendanceStatus `json:"status"`
}
