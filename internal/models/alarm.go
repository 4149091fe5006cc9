package models

// DefaultAlarmLabel is used when an alarm is created without a label.
const DefaultAlarmLabel = "Workout Reminder"

// AlarmTimeLayout is the time.Parse layout for Alarm.Time.
const AlarmTimeLayout = "15:04"

// Alarm is a time-of-day reminder, independent of any plan.
type Alarm struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Time     string `json:"time"`
	Label    string `json:"label"`
	IsActive bool   `json:"isActive"`
}

// OTPChallenge is an issued one-time code awaiting verification.
type OTPChallenge struct {
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"code"`
	ExpiresAt   int64  `json:"expiresAt"`
	Attempts    int    `json:"attempts"`
}
