package models

import (
    "database/sql"
    "time"
)

type Member struct {
    ID             int            `json:"id"`
    Name           string         `json:"name"`
    Email          string         `json:"email"`
    Phone          string         `json:"phone"`
    MembershipType string         `json:"membership_type"`
    Trainer        sql.NullString `json:"trainer"`
    Status         string         `json:"status"` // active | inactive | pending
    JoinDate       time.Time      `json:"join_date"`
}

type Class struct {
    ID           int       `json:"id"`
    Name         string    `json:"name"`
    Instructor   string    `json:"instructor"`
    ScheduleTime time.Time `json:"schedule_time"`
    Capacity     int       `json:"capacity"`
    Enrolled     int       `json:"enrolled"`
    Room         string    `json:"room"`
    Type         string    `json:"type"`
    Status       string    `json:"status"` // active | inactive | full
}

type Trainer struct {
    ID             int            `json:"id"`
    Name           string         `json:"name"`
    Specialization string         `json:"specialization"`
    Rating         float64        `json:"rating"`
    HourlyRate     float64        `json:"hourly_rate"`
    Bio            sql.NullString `json:"bio"`
    Status         string         `json:"status"` // active | inactive
    HireDate       time.Time      `json:"hire_date"`
}

type Equipment struct {
    ID              int          `json:"id"`
    Name            string       `json:"name"`
    Type            string       `json:"type"`
    Brand           string       `json:"brand"`
    Location        string       `json:"location"`
    LastMaintenance sql.NullTime `json:"last_maintenance"`
    NextMaintenance sql.NullTime `json:"next_maintenance"`
    Condition       string       `json:"condition"`
    Status          string       `json:"status"` // operational | maintenance | broken
}

type Payment struct {
    ID            int       `json:"id"`
    MemberName    string    `json:"member_name"`
    Plan          string    `json:"plan"`
    Amount        float64   `json:"amount"`
    Method        string    `json:"method"`
    InvoiceNumber string    `json:"invoice_number"`
    Status        string    `json:"status"` // paid | pending | failed | refunded
    Date          time.Time `json:"date"`
}

type CheckInRecord struct {
    ID              string       `json:"id"`
    MemberID        int          `json:"member_id"`
    MemberName      string       `json:"member_name"`
    CheckInTime     time.Time    `json:"check_in_time"`
    CheckOutTime    sql.NullTime `json:"check_out_time"`
    DurationMinutes int          `json:"duration_minutes"`
    Status          string       `json:"status"` // checked-in | checked-out
}

type MembershipPlan struct {
    ID             int      `json:"id"`
    Name           string   `json:"name"`
    Price          float64  `json:"price"`
    DurationMonths int      `json:"duration_months"`
    Features       []string `json:"features"`
    Popular        bool     `json:"popular"`
    Status         string   `json:"status"` // active | inactive
}

// User — административная учётка (страница «Пользователи»).
// Держится в памяти, в БД не пишется.
type User struct {
    ID          int      `json:"id"`
    Username    string   `json:"username"`
    Email       string   `json:"email"`
    Role        string   `json:"role"`
    Permissions []string `json:"permissions"`
    Status      string   `json:"status"` // active | inactive | suspended
}
