package constant

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// Admin actions recorded in admin_logs.
const (
	AdminActionCrawlLaws         = "crawl_laws"
	AdminActionUploadLaws        = "upload_laws"
	AdminActionGenerateReport    = "generate_report"
	AdminActionDeactivateAccount = "deactivate_account"
	AdminActionActivateAccount   = "activate_account"
	AdminActionQueryAccount      = "query_account"
	AdminActionCloseSession      = "close_session"
	AdminActionRepairCounts      = "repair_counts"
	AdminActionSystemMaintenance = "system_maintenance"
	AdminActionUpdateSettings    = "update_settings"
)
