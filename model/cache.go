package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/reelforge/reelforge/common"
	"github.com/reelforge/reelforge/common/logger"
)

const UserEnabledCacheSeconds = 60 * 5

// CacheIsUserEnabled reads the user-enabled flag through redis when
// available, falling back to the database.
func CacheIsUserEnabled(userId int) (bool, error) {
	return cachedUserEnabled(userId, IsUserEnabled)
}

func cachedUserEnabled(userId int, lookup func(int) (bool, error)) (bool, error) {
	if !common.RedisEnabled {
		return lookup(userId)
	}
	enabled, err := common.RedisGet(fmt.Sprintf("user_enabled:%d", userId))
	if err == nil {
		return enabled == "1", nil
	}

	userEnabled, err := lookup(userId)
	if err != nil {
		return false, err
	}
	enabled = "0"
	if userEnabled {
		enabled = "1"
	}
	err = common.RedisSet(fmt.Sprintf("user_enabled:%d", userId), enabled, time.Duration(UserEnabledCacheSeconds)*time.Second)
	if err != nil {
		logger.SysError("Redis set user enabled error: " + err.Error())
	}
	return userEnabled, err
}

func CacheInvalidateUser(userId int) {
	if !common.RedisEnabled {
		return
	}
	err := common.RedisDel("user_enabled:" + strconv.Itoa(userId))
	if err != nil {
		logger.SysError("Redis del user enabled error: " + err.Error())
	}
}
