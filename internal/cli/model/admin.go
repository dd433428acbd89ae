package model

// User status values accepted by the admin API.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Stats — сводка по сервису для главной страницы админки.
type Stats struct {
	TotalUsers     int `json:"total_users"`
	ActiveUsers    int `json:"active_users"`
	DisabledUsers  int `json:"disabled_users"`
	TotalBookmarks int `json:"total_bookmarks"`
	TotalSyncs     int `json:"total_syncs"`
	TodaySyncs     int `json:"today_syncs"`
}

// UserListItem is one row of GET /admin/users.
type UserListItem struct {
	ID            int64   `json:"id"`
	Email         string  `json:"email"`
	Status        string  `json:"status"`
	IsAdmin       bool    `json:"is_admin"`
	BookmarkCount int     `json:"bookmark_count"`
	LastSyncAt    *string `json:"last_sync_at"`
	CreatedAt     string  `json:"created_at"`
}

type Bookmark struct {
	ID         int64  `json:"id"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	FolderPath string `json:"folderPath"`
	CreatedAt  string `json:"created_at"`
}

type SyncLog struct {
	ID        int64  `json:"id"`
	Action    string `json:"action"`
	Added     int    `json:"added"`
	Updated   int    `json:"updated"`
	Deleted   int    `json:"deleted"`
	CreatedAt string `json:"created_at"`
}

// UserDetail is the payload of GET /admin/user/{id}.
type UserDetail struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	Status        string     `json:"status"`
	IsAdmin       bool       `json:"is_admin"`
	BookmarkCount int        `json:"bookmark_count"`
	SyncCount     int        `json:"sync_count"`
	LastSyncAt    *string    `json:"last_sync_at"`
	CreatedAt     string     `json:"created_at"`
	Bookmarks     []Bookmark `json:"bookmarks"`
	RecentSyncs   []SyncLog  `json:"recent_syncs"`
}

// UpdateUserRequest — nil fields are left unchanged by the server.
type UpdateUserRequest struct {
	Status  *string `json:"status,omitempty"`
	IsAdmin *bool   `json:"is_admin,omitempty"`
}

// ValidStatus reports whether s is a status the server accepts.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusDisabled
}
