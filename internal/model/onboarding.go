package model

// Option lists offered by the onboarding wizard.
var (
	RoleOptions = []string{
		"Product Manager",
		"Customer Success Manager",
		"Software Engineer",
	}
	LocationOptions = []string{
		"Remote",
		"San Francisco",
		"New York",
		"Toronto",
		"London",
	}
	TimezoneOptions = []string{
		"UTC",
		"America/New_York",
		"America/Los_Angeles",
		"America/Toronto",
		"Europe/London",
	}
)

// ScheduleOption is a selectable digest schedule.
type ScheduleOption struct {
	Cron  string
	Label string
}

// ScheduleOptions lists the digest schedules offered during onboarding.
var ScheduleOptions = []ScheduleOption{
	{Cron: "0 5 * * *", Label: "Daily at 5:00 AM"},
	{Cron: "0 6 * * *", Label: "Daily at 6:00 AM"},
	{Cron: "0 7 * * *", Label: "Daily at 7:00 AM"},
}

// OnboardingResponse acknowledges an onboarding submission.
type OnboardingResponse struct {
	NextStep        string `json:"next_step"`
	Message         string `json:"message"`
	ResumeVersionID string `json:"resume_version_id,omitempty"`
	ResumeDocURL    string `json:"resume_doc_url,omitempty"`
}
