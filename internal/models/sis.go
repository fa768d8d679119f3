package models

// LunchAssignment is a fixed lunch period the SIS assigns to a student.
type LunchAssignment struct {
	StudentID string `json:"student_id"`
	DayOfWeek string `json:"day_of_week"`
	StartMin  int    `json:"start_min"`
	EndMin    int    `json:"end_min"`
}

// TeacherAvailability is a per-day availability window supplied by the SIS.
type TeacherAvailability struct {
	TeacherID string `json:"teacher_id"`
	DayOfWeek string `json:"day_of_week"`
	StartMin  int    `json:"start_min"`
	EndMin    int    `json:"end_min"`
	Available bool   `json:"available"`
}
