// 包 utils：环境变量读取、数据库/Redis 连接与自签证书工具
package utils

import (
	"os"
	"strconv"
	"time"
)

// EnvOr：读取字符串变量，空值回退默认
func EnvOr(key, d string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return d
}

// EnvInt：读取整数变量；解析失败或不满足 min 时回退默认
func EnvInt(key string, d, min int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= min {
			return n
		}
	}
	return d
}

// EnvSeconds：以秒为单位读取时长，非正数回退默认
func EnvSeconds(key string, d time.Duration) time.Duration {
	if n := EnvInt(key, 0, 1); n > 0 {
		return time.Duration(n) * time.Second
	}
	return d
}

// EnvBool：仅 "true" 视为真；未设置时返回默认
func EnvBool(key string, d bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return d
	}
	return v == "true"
}
