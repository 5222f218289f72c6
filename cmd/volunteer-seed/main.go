package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"volunteer-geo/internal/logger"
	"volunteer-geo/internal/migrate"
	"volunteer-geo/internal/store"
	"volunteer-geo/internal/utils"
	"volunteer-geo/internal/volunteer"
)

// 文档注释：把表单导出的志愿者 JSON 导入 PostgreSQL
// 背景：服务以 VOLUNTEER_SOURCE=postgres 运行时从库读取名单；本工具负责初始导入与重复导入（按 id 覆盖）。
// 约束：VOLUNTEER_JSON_PATH 必填；无姓名的行跳过；每批 100 条，SEED_WORKERS 控制并发批数。
func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	path := os.Getenv("VOLUNTEER_JSON_PATH")
	if path == "" {
		l.Error("volunteer_json_path_missing")
		os.Exit(1)
	}
	raws, err := volunteer.LoadFile(path, utils.EnvInt("VOLUNTEER_SKIP_ROWS", 2, 0))
	if err != nil {
		l.Error("dataset_load_error", "err", err)
		os.Exit(1)
	}
	var rows []store.Row
	for _, r := range raws {
		if r.HasName() {
			rows = append(rows, store.RowFromRaw(r))
		}
	}
	l.Info("seed_prepared", "read", len(raws), "valid", len(rows))

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	st := store.AttachDB(db)
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	n, err := st.InsertBatch(ctx, rows, utils.EnvInt("SEED_WORKERS", 4, 1))
	if err != nil {
		l.Error("seed_partial", "written", n, "total", len(rows), "err", err)
		os.Exit(1)
	}
	total, _ := st.Count(ctx)
	l.Info("seed_done", "written", n, "table_total", total)
}
