package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SQLStore persists the item bank in sqlite or postgres via database/sql.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) List(ctx context.Context, f Filter) ([]Item, error) {
	q := `SELECT id,text,type,choices_json,correct_answer,topic,cognitive_level,difficulty,knowledge_dimension,answer_shape,usage_count,approved,created_at
		FROM items WHERE approved=1 AND deleted=0`
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return placeholder(n)
	}
	if f.Topic != "" {
		q += ` AND LOWER(topic) LIKE ` + arg("%"+strings.ToLower(f.Topic)+"%")
	}
	if f.Level != "" {
		q += ` AND LOWER(cognitive_level) = ` + arg(strings.ToLower(f.Level))
	}
	if f.Difficulty != "" {
		q += ` AND difficulty = ` + arg(f.Difficulty)
	}
	q += ` ORDER BY usage_count ASC, id ASC`
	if f.Limit > 0 {
		q += ` LIMIT ` + arg(f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		var it Item
		var choicesJSON string
		var approved int
		if err := rows.Scan(&it.ID, &it.Text, &it.Type, &choicesJSON, &it.CorrectAnswer,
			&it.Topic, &it.CognitiveLevel, &it.Difficulty, &it.KnowledgeDimension,
			&it.AnswerShape, &it.UsageCount, &approved, &it.CreatedAt); err != nil {
			return nil, err
		}
		it.Approved = approved != 0
		if choicesJSON != "" {
			_ = json.Unmarshal([]byte(choicesJSON), &it.Choices)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *SQLStore) Insert(ctx context.Context, items []Item) ([]Item, error) {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		it = canonicalize(it)
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if it.CreatedAt == 0 {
			it.CreatedAt = time.Now().Unix()
		}
		choicesJSON := ""
		if len(it.Choices) > 0 {
			buf, err := json.Marshal(it.Choices)
			if err != nil {
				return nil, err
			}
			choicesJSON = string(buf)
		}
		approved := 0
		if it.Approved {
			approved = 1
		}
		_, err := s.db.ExecContext(ctx, `INSERT INTO items
			(id,text,type,choices_json,correct_answer,topic,cognitive_level,difficulty,knowledge_dimension,answer_shape,usage_count,approved,deleted,created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,0,$13)`,
			it.ID, it.Text, it.Type, choicesJSON, it.CorrectAnswer, it.Topic,
			it.CognitiveLevel, it.Difficulty, it.KnowledgeDimension, it.AnswerShape,
			it.UsageCount, approved, it.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *SQLStore) MarkUsed(ctx context.Context, itemID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE items SET usage_count = usage_count + 1 WHERE id=$1`, itemID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// $N binds positionally under both the pgx stdlib driver and modernc sqlite.
func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
