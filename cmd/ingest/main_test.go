package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"iuem_fetcher/internal/config"
	"iuem_fetcher/internal/source/board"
)

func TestCheonanConfig(t *testing.T) {
	cfg := cheonanConfig(config.BoardSourceConfig{
		Enabled:     true,
		BaseURL:     "https://www.cheonan.go.kr",
		MaxItems:    15,
		PageDelay:   500 * time.Millisecond,
		DetailDelay: 200 * time.Millisecond,
		Boards: []config.BoardConfig{
			{Path: "/cop/bbs/BBSMSTR_000000002660/selectBoardList.do"},
			{Path: "/cop/bbs/BBSMSTR_000000000473/selectBoardList.do", Notice: true},
		},
	})

	assert.Equal(t, "https://www.cheonan.go.kr", cfg.BaseURL)
	assert.Equal(t, []board.Board{
		{Path: "/cop/bbs/BBSMSTR_000000002660/selectBoardList.do"},
		{Path: "/cop/bbs/BBSMSTR_000000000473/selectBoardList.do", Notice: true},
	}, cfg.Boards)
	assert.Equal(t, 15, cfg.MaxItems)
	assert.Equal(t, 200*time.Millisecond, cfg.DetailDelay)
}

func TestCheonanConfig_DefaultBoards(t *testing.T) {
	cfg := cheonanConfig(config.BoardSourceConfig{BaseURL: "https://www.cheonan.go.kr"})
	assert.Empty(t, cfg.Boards)
}
