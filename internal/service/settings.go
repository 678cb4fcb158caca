package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"

	"docedit/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Window & viewport persistence
// ─────────────────────────────────────────────────────────────
//
// Saves the main window size and the last reported viewport width between
// sessions as key-value rows in app_settings. The headless MCP server reads
// the viewport width so its canvas matches the one on screen.

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SettingsService persists window and viewport settings.
type SettingsService struct {
	db *storage.DB
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(db *storage.DB) *SettingsService {
	return &SettingsService{db: db}
}

const (
	settingWindowWidth   = "window_width"
	settingWindowHeight  = "window_height"
	settingViewportWidth = "viewport_width"

	DefaultWindowWidth  = 1440
	DefaultWindowHeight = 900
	minWindowWidth      = 800
	minWindowHeight     = 600
)

// LoadWindowSize returns the saved window dimensions, or the defaults.
func (s *SettingsService) LoadWindowSize(ctx context.Context) WindowSize {
	w := s.intSetting(ctx, settingWindowWidth, DefaultWindowWidth)
	h := s.intSetting(ctx, settingWindowHeight, DefaultWindowHeight)
	if w < minWindowWidth {
		w = DefaultWindowWidth
	}
	if h < minWindowHeight {
		h = DefaultWindowHeight
	}
	return WindowSize{Width: w, Height: h}
}

// SaveWindowSize persists the current window dimensions.
func (s *SettingsService) SaveWindowSize(ctx context.Context, width, height int) error {
	if err := s.upsert(ctx, settingWindowWidth, strconv.Itoa(width)); err != nil {
		return err
	}
	return s.upsert(ctx, settingWindowHeight, strconv.Itoa(height))
}

// LoadViewportWidth returns the last viewport width, and false when none
// was ever saved.
func (s *SettingsService) LoadViewportWidth(ctx context.Context) (float64, bool) {
	raw, ok := s.setting(ctx, settingViewportWidth)
	if !ok {
		return 0, false
	}
	w, err := strconv.ParseFloat(raw, 64)
	if err != nil || w <= 0 {
		return 0, false
	}
	return w, true
}

// SaveViewportWidth records the viewport width the canvas was sized from.
func (s *SettingsService) SaveViewportWidth(ctx context.Context, width float64) error {
	return s.upsert(ctx, settingViewportWidth, strconv.FormatFloat(width, 'f', -1, 64))
}

func (s *SettingsService) intSetting(ctx context.Context, key string, def int) int {
	raw, ok := s.setting(ctx, key)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func (s *SettingsService) setting(ctx context.Context, key string) (string, bool) {
	if s.db == nil {
		return "", false
	}
	var value string
	err := s.db.Conn().QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[SETTINGS] read %s: %v", key, err)
		}
		return "", false
	}
	return value, true
}

func (s *SettingsService) upsert(ctx context.Context, key, value string) error {
	if s.db == nil {
		return fmt.Errorf("settings: no db")
	}
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
