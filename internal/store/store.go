// 包 store：志愿者名单的 PostgreSQL 访问层（批量导入与按序读取）
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"volunteer-geo/internal/logger"
	"volunteer-geo/internal/volunteer"
)

// BatchSize：单次事务写入条数
const BatchSize = 100

// Store：持有连接池的数据访问入口
type Store struct {
	db *sqlx.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: sqlx.NewDb(db, "postgres")} }

func (s *Store) Close() error { return s.db.Close() }

// Row：入库行（不含派生坐标）；表单附加字段可为空
type Row struct {
	ID                 string  `db:"id"`
	Name               string  `db:"name"`
	Mobile             string  `db:"mobile"`
	District           string  `db:"district"`
	VidhanSabha        string  `db:"vidhan_sabha"`
	VerificationStatus string  `db:"verification_status"`
	Age                *string `db:"age"`
	Role               *string `db:"role"`
	SocialMedia        *string `db:"social_media"`
	Email              *string `db:"email"`
	Qualification      *string `db:"qualification"`
	CanVisitOffice     *string `db:"can_visit_office"`
	Mindset            *string `db:"mindset"`
	SubmittedAt        *string `db:"submitted_at"`
}

// 表单附加字段的列名候选（导出列号、问题原文）
var (
	ageFields           = []string{"Column6", "आपकी उम्र क्या है? ", "age"}
	roleFields          = []string{"Column9", "अगर हाँ, तो पार्टी से आपका संबंध क्या है? ", "role"}
	socialMediaFields   = []string{"Column10", "आप किन-किन सोशल मीडिया प्लेटफॉर्म पर सक्रिय हैं? ", "social_media"}
	emailFields         = []string{"Column13", "E Mail ID ", "email"}
	qualificationFields = []string{"Column14", "क्वालिफिकेशन ", "qualification"}
	canVisitFields      = []string{"Column15", "क्या डिजिटल ट्रेनिंग व मीटिंग के लिए समाजवादी पार्टी कार्यालय आ सकते है ?", "can_visit_office"}
	mindsetFields       = []string{"बातचीत के दौरान उसका माइंडसेट कैसा है ", "mindset"}
	submittedAtFields   = []string{"Column1", "Timestamp", "submitted_at"}
)

func optional(r volunteer.Raw, names []string) *string {
	if s := r.Field(names...); s != "" {
		return &s
	}
	return nil
}

// RowFromRaw：原始行转入库行；状态缺失时为 Pending，id 缺失时生成
func RowFromRaw(r volunteer.Raw) Row {
	rec := volunteer.FromRaw(r)
	row := Row{
		ID:                 r.Field("id", "ID"),
		Name:               rec.Name,
		Mobile:             rec.Mobile,
		District:           rec.District,
		VidhanSabha:        rec.Constituency,
		VerificationStatus: r.Field("वेरिफिकेशन स्टेटस ", "verification_status"),
		Age:                optional(r, ageFields),
		Role:               optional(r, roleFields),
		SocialMedia:        optional(r, socialMediaFields),
		Email:              optional(r, emailFields),
		Qualification:      optional(r, qualificationFields),
		CanVisitOffice:     optional(r, canVisitFields),
		Mindset:            optional(r, mindsetFields),
		SubmittedAt:        optional(r, submittedAtFields),
	}
	if _, err := uuid.Parse(row.ID); err != nil {
		row.ID = uuid.NewString()
	}
	if row.VerificationStatus == "" {
		row.VerificationStatus = "Pending"
	}
	return row
}

// Batches：按固定大小切分
func Batches(rows []Row, size int) [][]Row {
	if size <= 0 {
		size = BatchSize
	}
	var out [][]Row
	for i := 0; i < len(rows); i += size {
		end := i + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[i:end])
	}
	return out
}

// 文档注释：批量写入志愿者（按批事务，批间并发）
// 背景：表单导出动辄数千行，逐条写入过慢；每批独立事务，一批失败不影响其它批次的提交。
// 约束：id 冲突时更新全部字段；返回成功写入条数与所有失败批次的合并错误；并发度由 workers 限制。
func (s *Store) InsertBatch(ctx context.Context, rows []Row, workers int) (int, error) {
	if workers <= 0 {
		workers = 4
	}
	batches := Batches(rows, BatchSize)
	written := make([]int, len(batches))
	errs := make([]error, len(batches))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, b := range batches {
		g.Go(func() error {
			if err := s.insertOne(ctx, b); err != nil {
				logger.L().Error("volunteer_batch_error", "batch", i+1, "size", len(b), "err", err)
				errs[i] = fmt.Errorf("batch %d: %w", i+1, err)
				return nil
			}
			written[i] = len(b)
			logger.L().Info("volunteer_batch_ok", "batch", i+1, "size", len(b))
			return nil
		})
	}
	_ = g.Wait()
	n := 0
	for _, w := range written {
		n += w
	}
	return n, errors.Join(errs...)
}

func (s *Store) insertOne(ctx context.Context, rows []Row) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareNamedContext(ctx, upsertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const upsertSQL = `INSERT INTO volunteers (id, name, mobile, district, vidhan_sabha, verification_status,
            age, role, social_media, email, qualification, can_visit_office, mindset, submitted_at)
        VALUES (:id, :name, :mobile, :district, :vidhan_sabha, :verification_status,
            :age, :role, :social_media, :email, :qualification, :can_visit_office, :mindset, :submitted_at)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, mobile=EXCLUDED.mobile, district=EXCLUDED.district,
            vidhan_sabha=EXCLUDED.vidhan_sabha, verification_status=EXCLUDED.verification_status,
            age=EXCLUDED.age, role=EXCLUDED.role, social_media=EXCLUDED.social_media, email=EXCLUDED.email,
            qualification=EXCLUDED.qualification, can_visit_office=EXCLUDED.can_visit_office,
            mindset=EXCLUDED.mindset, submitted_at=EXCLUDED.submitted_at`

// List：按写入顺序读取全部志愿者，转为原始行以复用统一的归并逻辑
func (s *Store) List(ctx context.Context) ([]volunteer.Raw, error) {
	var rows []Row
	if err := s.db.SelectContext(ctx, &rows, `SELECT id::text AS id, name, mobile, district, vidhan_sabha, verification_status
        FROM volunteers ORDER BY seq`); err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	out := make([]volunteer.Raw, 0, len(rows))
	for _, r := range rows {
		out = append(out, volunteer.Raw{
			"id":                  r.ID,
			"name":                r.Name,
			"mobile":              r.Mobile,
			"district":            r.District,
			"vidhan_sabha":        r.VidhanSabha,
			"verification_status": r.VerificationStatus,
		})
	}
	logger.L().Debug("volunteer_list", "count", len(out))
	return out, nil
}

// Count：当前名单条数
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM volunteers`); err != nil {
		return 0, fmt.Errorf("count volunteers: %w", err)
	}
	return n, nil
}
