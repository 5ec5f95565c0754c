package models

// StudentDashboard is the aluno landing page payload.
type StudentDashboard struct {
	UpcomingLessons  []LessonDetail          `json:"upcomingLessons"`
	RecentAttendance []AttendanceHistoryItem `json:"recentAttendance"`
	Stats            StudentDashboardStats   `json:"stats"`
}

// StudentDashboardStats aggregates a student's attendance.
type StudentDashboardStats struct {
	TotalAttended int `json:"totalAttended"`
}

// ProfessorDashboard lists the lessons a professor teaches next.
type ProfessorDashboard struct {
	MyLessons []LessonDetail `json:"myLessons"`
}

// AdminDashboard carries academy-wide counters.
type AdminDashboard struct {
	TotalUsers      int `json:"totalUsers"`
	TotalStudents   int `json:"totalStudents"`
	TotalProfessors int `json:"totalProfessors"`
	TotalClasses    int `json:"totalClasses"`
	LessonsToday    int `json:"lessonsToday"`
}
