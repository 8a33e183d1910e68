package domain

// ActivityIncome is the revenue attributed to one activity
type ActivityIncome struct {
	ActivityID string    `json:"activity_id"`
	Activity   *Activity `json:"sport"`
	Income     float64   `json:"income"`
}

// ActivityMembers is the number of payments that included one activity
type ActivityMembers struct {
	ActivityID string    `json:"activity_id"`
	Activity   *Activity `json:"sport"`
	Members    int       `json:"members"`
}

// Dashboard is the consolidated operational report.
// Series are 12 entries long; index 0 is eleven months before the current
// month and index 11 is the current month.
type Dashboard struct {
	MembersCount            int64             `json:"members_count"`
	MembersJoinedLast30Days int64             `json:"members_per_month"`
	TotalActivities         int64             `json:"total_activity"`
	ExpiringMembersCount    int64             `json:"expiring_members_count"`
	TotalIncome             int64             `json:"total_income"`
	IncomeByMonth           []int64           `json:"income_by_month"`
	ActiveMembersByMonth    []int64           `json:"table"`
	MonthsReference         []string          `json:"months_reference"`
	ActivityIncome          []ActivityIncome  `json:"activity_by_income"`
	ActivityMembers         []ActivityMembers `json:"sports_by_members"`
	Notifications           []*Notification   `json:"notifications"`
}
