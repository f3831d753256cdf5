package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/timera-ai/timera-api/common"
	"github.com/timera-ai/timera-api/common/config"
	"github.com/timera-ai/timera-api/common/logger"
)

var BalanceCacheSeconds = config.SyncFrequency

// CacheGetUserBalance serves the credit triple from Redis when possible and
// falls back to the database, repopulating the mirror. Every ledger mutation
// invalidates the key, so a hit is at most SyncFrequency seconds stale and
// never spans a mutation.
func CacheGetUserBalance(id int) (*Balance, error) {
	if !common.RedisEnabled {
		return GetUserBalance(id)
	}
	balanceString, err := common.RedisGet(fmt.Sprintf("user_balance:%d", id))
	if err != nil {
		return fetchAndUpdateUserBalance(id)
	}
	var balance Balance
	err = json.Unmarshal([]byte(balanceString), &balance)
	if err != nil {
		return fetchAndUpdateUserBalance(id)
	}
	return &balance, nil
}

func fetchAndUpdateUserBalance(id int) (*Balance, error) {
	balance, err := GetUserBalance(id)
	if err != nil {
		return nil, err
	}
	jsonBytes, err := json.Marshal(balance)
	if err != nil {
		return balance, nil
	}
	err = common.RedisSet(fmt.Sprintf("user_balance:%d", id), string(jsonBytes), time.Duration(BalanceCacheSeconds)*time.Second)
	if err != nil {
		logger.SysError("Redis set user balance error: " + err.Error())
	}
	return balance, nil
}

// CacheInvalidateUserBalance drops the mirror after any hold, confirm,
// release or credit grant. The next read repopulates from the database.
func CacheInvalidateUserBalance(id int) {
	if !common.RedisEnabled {
		return
	}
	err := common.RedisDel(fmt.Sprintf("user_balance:%d", id))
	if err != nil {
		logger.SysError("Redis delete user balance error: " + err.Error())
	}
}

func CacheIsUserEnabled(userId int) (bool, error) {
	if !common.RedisEnabled {
		return IsUserEnabled(userId)
	}
	enabled, err := common.RedisGet(fmt.Sprintf("user_enabled:%d", userId))
	if err == nil {
		return enabled == "1", nil
	}
	userEnabled, err := IsUserEnabled(userId)
	if err != nil {
		return false, err
	}
	enabled = "0"
	if userEnabled {
		enabled = "1"
	}
	err = common.RedisSet(fmt.Sprintf("user_enabled:%d", userId), enabled, time.Duration(config.SyncFrequency)*time.Second)
	if err != nil {
		logger.SysError("Redis set user enabled error: " + err.Error())
	}
	return userEnabled, nil
}
