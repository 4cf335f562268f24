package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/sessionbridge/internal/observability/logger"
)

// PGUsers implementa UserStore sobre postgres. El índice email→uid se
// mantiene acá (en cada create): la reconciliación solo lo lee.
type PGUsers struct {
	pool  *pgxpool.Pool
	index IndexStore
}

// PGConfig son los knobs del pool.
type PGConfig struct {
	DSN             string
	MaxOpenConns    int
	MinConns        int
	ConnMaxLifetime string
}

// NewPGUsers abre el pool y retorna el store. El ping de arranque es
// non-blocking: si la DB está caída el servicio igual levanta.
func NewPGUsers(ctx context.Context, cfg PGConfig, index IndexStore) (*PGUsers, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
			pcfg.MaxConnLifetime = d
			pcfg.MaxConnIdleTime = d
		}
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 5
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	log := logger.Named("store")
	if err := pool.Ping(ctx); err != nil {
		log.Warn("pg startup ping failed", logger.Err(err))
	} else {
		log.Info("pg pool ready", logger.Int("max_conns", int(pcfg.MaxConns)))
	}

	return &PGUsers{pool: pool, index: index}, nil
}

// Pool expone el pool interno (migraciones/metrics).
func (s *PGUsers) Pool() *pgxpool.Pool { return s.pool }

func (s *PGUsers) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *PGUsers) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *PGUsers) Create(ctx context.Context, u NewUser) (int64, error) {
	var uid int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO bridge_user (username, email, fullname, picture)
		VALUES ($1, $2, $3, $4)
		RETURNING uid`,
		u.Username, u.Email, u.FullName, u.Picture,
	).Scan(&uid)
	if err != nil {
		return 0, fmt.Errorf("store: create user: %w", err)
	}

	if u.Email != "" {
		if err := s.index.LinkEmail(ctx, u.Email, uid); err != nil {
			return 0, fmt.Errorf("store: index email for uid %d: %w", uid, err)
		}
	}
	return uid, nil
}

func (s *PGUsers) GetByUID(ctx context.Context, uid int64) (UserProfile, error) {
	var p UserProfile
	err := s.pool.QueryRow(ctx, `
		SELECT uid, username, email, fullname, picture, created_at
		  FROM bridge_user
		 WHERE uid = $1`, uid,
	).Scan(&p.UID, &p.Username, &p.Email, &p.FullName, &p.Picture, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserProfile{}, ErrUserNotFound
		}
		return UserProfile{}, err
	}
	return p, nil
}

func (s *PGUsers) UpdateUsername(ctx context.Context, uid int64, username string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE bridge_user SET username = $1 WHERE uid = $2`, username, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
