package common

import "time"

var StartTime = time.Now().Unix() // unit: second
var Version = "v0.4.2"

const (
	RoleGuestUser  = 0
	RoleCommonUser = 1
	RoleAdminUser  = 10
	RoleRootUser   = 100
)

const (
	UserStatusEnabled  = 1 // don't use 0, 0 is the default value!
	UserStatusDisabled = 2 // also don't use 0
	UserStatusDeleted  = 3
)

var SQLitePath = "reelforge.db"
var UsingSQLite = false
var UsingPostgreSQL = false
var UsingMySQL = false
