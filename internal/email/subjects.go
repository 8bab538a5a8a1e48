package email

const (
	subjectPreferenceReminder = "Complete Your Learning Profile for a Better Experience"
)
