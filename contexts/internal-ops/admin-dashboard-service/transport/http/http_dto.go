package httptransport

type UserTotalsDTO struct {
	Homeowners             int `json:"homeowners"`
	Agents                 int `json:"agents"`
	Admins                 int `json:"admins"`
	ActiveSubscriptions    int `json:"active_subscriptions"`
	CancelledSubscriptions int `json:"cancelled_subscriptions"`
}

type RecentActionDTO struct {
	AdminID      string `json:"admin_id"`
	Action       string `json:"action"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	OccurredAt   string `json:"occurred_at"`
}

type OverviewResponse struct {
	GeneratedAt   string            `json:"generated_at"`
	Users         UserTotalsDTO     `json:"users"`
	Policies      map[string]int    `json:"policies"`
	Claims        map[string]int    `json:"claims"`
	RecentActions []RecentActionDTO `json:"recent_actions"`
}
