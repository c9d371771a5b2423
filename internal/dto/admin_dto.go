package dto

import (
	"time"

	"github.com/google/uuid"
)

type DailyActivity struct {
	Date     string `json:"date"`
	Messages int64  `json:"messages"`
}

type AdminStatsResponse struct {
	TotalUsers       int64           `json:"total_users"`
	ActiveUsers      int64           `json:"active_users"`
	TotalSessions    int64           `json:"total_sessions"`
	ActiveSessions   int64           `json:"active_sessions"`
	TotalMessages    int64           `json:"total_messages"`
	MessagesToday    int64           `json:"messages_today"`
	SevenDayActivity []DailyActivity `json:"seven_day_activity"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

type RepairCountsRequest struct {
	SessionId *uuid.UUID `json:"session_id,omitempty"`
}

type RepairedSession struct {
	SessionId          uuid.UUID `json:"session_id"`
	StoredMessageCount int       `json:"stored_message_count"`
	ActualMessageCount int       `json:"actual_message_count"`
	StoredTotalTokens  int       `json:"stored_total_tokens"`
	ActualTotalTokens  int       `json:"actual_total_tokens"`
}

type RepairCountsResponse struct {
	Checked  int               `json:"checked"`
	Repaired []RepairedSession `json:"repaired"`
}

// RequestMeta carries caller details recorded in the admin action log.
type RequestMeta struct {
	IpAddress string
	UserAgent string
}

type AdminLogResponse struct {
	Id            uuid.UUID              `json:"id"`
	AdminId       uuid.UUID              `json:"admin_id"`
	Action        string                 `json:"action"`
	Params        map[string]interface{} `json:"params"`
	Result        map[string]interface{} `json:"result"`
	Success       bool                   `json:"success"`
	ErrorMessage  *string                `json:"error_message,omitempty"`
	ExecutionTime float64                `json:"execution_time"`
	IpAddress     string                 `json:"ip_address"`
	UserAgent     string                 `json:"user_agent"`
	CreatedAt     time.Time              `json:"created_at"`
}

type AdminLogListResponse struct {
	Logs  []*AdminLogResponse `json:"logs"`
	Total int64               `json:"total"`
}

type PageQuery struct {
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
	Level  string `query:"level"`
	Action string `query:"action"`
}

// LogListResponse ids are md5 hashes of the log line, not UUIDs.
type LogListResponse struct {
	Id        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Module    string                 `json:"module,omitempty"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
}
