package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"volunteer-geo/internal/logger"
)

// 背景：首次运行自动创建志愿者表与索引，保障导入与查询
// 约束：使用 IF NOT EXISTS 保持幂等；不存储解析坐标（派生数据，每次加载重新计算）
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS volunteers (
            id UUID PRIMARY KEY,
            seq BIGSERIAL,
            name TEXT NOT NULL,
            mobile TEXT NOT NULL DEFAULT '',
            district TEXT NOT NULL DEFAULT '',
            vidhan_sabha TEXT NOT NULL DEFAULT '',
            verification_status TEXT NOT NULL DEFAULT 'Pending',
            age TEXT,
            role TEXT,
            social_media TEXT,
            email TEXT,
            qualification TEXT,
            can_visit_office TEXT,
            mindset TEXT,
            submitted_at TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_volunteers_seq ON volunteers(seq)`,
		`CREATE INDEX IF NOT EXISTS idx_volunteers_district ON volunteers(lower(district))`,
	}
	// 早期建表只有排序所需字段，补齐表单附加列
	for _, c := range []string{"age", "role", "social_media", "email", "qualification", "can_visit_office", "mindset", "submitted_at"} {
		stmts = append(stmts, `ALTER TABLE volunteers ADD COLUMN IF NOT EXISTS `+c+` TEXT`)
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("schema stmt %d: %w", i, err)
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
