package model

// DoctorDashboard aggregates a doctor's booking history. Earnings count
// appointments that were completed or are still active; cancelled ones
// are excluded.
type DoctorDashboard struct {
	Earnings           float64        `json:"earnings"`
	Appointments       int            `json:"appointments"`
	Patients           int            `json:"patients"`
	LatestAppointments []*Appointment `json:"latest_appointments"`
}

type AdminDashboard struct {
	Doctors            int64          `json:"doctors"`
	Patients           int64          `json:"patients"`
	Appointments       int64          `json:"appointments"`
	LatestAppointments []*Appointment `json:"latest_appointments"`
}
