package helper

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GetTimestamp() int64 {
	return time.Now().Unix()
}

func GetTimeString() string {
	now := time.Now()
	return fmt.Sprintf("%s%d", now.Format("20060102150405"), now.UnixNano()%1e9)
}

func GenRequestID() string {
	return GetTimeString() + GetRandomNumberString(8)
}

func GenOrderNo() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func GetRandomNumberString(length int) string {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	key := make([]byte, length)
	for i := 0; i < length; i++ {
		key[i] = byte(rng.Intn(10) + '0')
	}
	return string(key)
}

func GetRandomString(length int) string {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	const keyChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	key := make([]byte, length)
	for i := 0; i < length; i++ {
		key[i] = keyChars[rng.Intn(len(keyChars))]
	}
	return string(key)
}

func MessageWithRequestId(message string, id string) string {
	return fmt.Sprintf("%s (request id: %s)", message, id)
}

func Max(a int, b int) int {
	if a >= b {
		return a
	}
	return b
}

func AssignOrDefault(value string, defaultValue string) string {
	if len(value) != 0 {
		return value
	}
	return defaultValue
}

func Interface2String(inter interface{}) string {
	switch inter := inter.(type) {
	case string:
		return inter
	case int:
		return fmt.Sprintf("%d", inter)
	case float64:
		return fmt.Sprintf("%f", inter)
	}
	return "Not Implemented"
}

func String2Int(str string) int {
	num, err := strconv.Atoi(str)
	if err != nil {
		return 0
	}
	return num
}
