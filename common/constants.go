package common

var Version = "v1.2.0"

var UsingSQLite = false
var UsingPostgreSQL = false
var UsingMySQL = false

var SQLitePath = "timera.db"
var SQLiteBusyTimeout = 3000

const (
	UserStatusEnabled  = 1
	UserStatusDisabled = 2
)

const (
	RoleCommonUser = 1
	RoleAdminUser  = 10
	RoleRootUser   = 100
)

const (
	TopupStatusCreated  = 1
	TopupStatusPending  = 2
	TopupStatusPaid     = 3
	TopupStatusFailed   = 4
	TopupStatusRefunded = 5
)

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)
