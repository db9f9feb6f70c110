package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/config"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("analysis not found")

// Record 一次分析的持久化记录
type Record struct {
	ID         string                `json:"id"`
	ReportMode string                `json:"report_mode"`
	ReportType string                `json:"report_type"`
	Provider   string                `json:"provider"`
	Model      string                `json:"model"`
	Result     *model.AnalysisResult `json:"result"`
	CreatedAt  time.Time             `json:"created_at"`
}

type Storage struct {
	db *sql.DB
}

func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS ai_analyses (
			id UUID PRIMARY KEY,
			report_mode TEXT,
			report_type TEXT,
			provider TEXT,
			model TEXT,
			status TEXT NOT NULL,
			summary TEXT,
			result JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ai_analyses_created_at ON ai_analyses (created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}

// SaveAnalysis 保存分析结果，返回新记录 ID
func (s *Storage) SaveAnalysis(ctx context.Context, rec *Record) (string, error) {
	if rec.Result == nil {
		return "", fmt.Errorf("record has no result")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	result := sanitizeResult(rec.Result)
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO ai_analyses (id, report_mode, report_type, provider, model, status, summary, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		rec.ID, sanitizeText(rec.ReportMode), sanitizeText(rec.ReportType), rec.Provider, rec.Model,
		string(result.Status), result.Summary, payload).Scan(&rec.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert analysis: %w", err)
	}
	return rec.ID, nil
}

// GetAnalysis 按 ID 查询
func (s *Storage) GetAnalysis(ctx context.Context, id string) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, report_mode, report_type, provider, model, result, created_at
		FROM ai_analyses WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis: %w", err)
	}
	return rec, nil
}

// ListAnalyses 分页查询，按创建时间倒序，返回记录与总数
func (s *Storage) ListAnalyses(ctx context.Context, page, pageSize int) ([]*Record, int, error) {
	page, pageSize = normalizePage(page, pageSize)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ai_analyses`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count analyses: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, report_mode, report_type, provider, model, result, created_at
		FROM ai_analyses
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan analysis: %w", err)
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec        Record
		mode, typ  sql.NullString
		prov, name sql.NullString
		payload    []byte
	)
	if err := row.Scan(&rec.ID, &mode, &typ, &prov, &name, &payload, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.ReportMode, rec.ReportType = mode.String, typ.String
	rec.Provider, rec.Model = prov.String, name.String

	rec.Result = &model.AnalysisResult{}
	if err := json.Unmarshal(payload, rec.Result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &rec, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// sanitizeResult 返回文本字段清洗后的副本
func sanitizeResult(r *model.AnalysisResult) *model.AnalysisResult {
	c := *r
	for _, f := range []*string{
		&c.Summary, &c.KeywordAnalysis, &c.Sentiment, &c.CrossPlatform,
		&c.Impact, &c.Signals, &c.Conclusion, &c.RawResponse, &c.Error,
	} {
		*f = sanitizeText(*f)
	}
	return &c
}

// sanitizeText 移除无效的 UTF-8 字符和 NULL 字节，PostgreSQL 文本与 JSONB 均不接受
func sanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.ReplaceAll(s, "\x00", "")
}
