package utils

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/lib/pq"
)

// 文档注释：由 PG_* 环境变量拼装 DSN
// 约束：密码经 URL 转义；未设置 PG_PASSWORD 时省略密码段。
func BuildPostgresDSNFromEnv() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   EnvOr("PG_HOST", "localhost") + ":" + EnvOr("PG_PORT", "5432"),
		Path:   "/" + EnvOr("PG_DB", "volunteers"),
	}
	user := EnvOr("PG_USER", "postgres")
	if pass := EnvOr("PG_PASSWORD", ""); pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	q := url.Values{}
	q.Set("sslmode", EnvOr("PG_SSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}

// OpenPostgresFromEnv：打开连接池（不 Ping，由调用方决定是否探活）
func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(EnvInt("PG_MAX_OPEN_CONNS", 10, 1))
	db.SetMaxIdleConns(EnvInt("PG_MAX_IDLE_CONNS", 5, 0))
	return db, nil
}
