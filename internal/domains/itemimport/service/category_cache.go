package service

import (
	"context"
	"errors"
	"fmt"

	itemmodel "inventory-backend/internal/domains/item/model"
	itemrepo "inventory-backend/internal/domains/item/repository"
	"inventory-backend/internal/shared/utils"
	"inventory-backend/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// CategoryCache map tên category (case-folded) => id cho một lần import.
// Thuộc về đúng một run, không dùng chung giữa các goroutine.
type CategoryCache struct {
	repo    itemrepo.CategoryRepository
	byKey   map[string]int64
	created int
}

func NewCategoryCache(repo itemrepo.CategoryRepository) *CategoryCache {
	return &CategoryCache{
		repo:  repo,
		byKey: make(map[string]int64),
	}
}

// Preload nạp toàn bộ category hiện có, gọi một lần trước row đầu tiên.
func (c *CategoryCache) Preload(ctx context.Context, tx pgx.Tx) error {
	categories, err := c.repo.ListAllTx(ctx, tx)
	if err != nil {
		return fmt.Errorf("preload categories: %w", err)
	}

	for _, cat := range categories {
		c.byKey[utils.FoldName(cat.Name)] = cat.ID
	}
	log.Debug().Int("count", len(categories)).Msg("[IMPORT] Category cache preloaded")
	return nil
}

// Resolve trả về id của category, tạo mới nếu chưa có.
// Tên rỗng => nil, không phải lỗi. created=true khi chính lần gọi này
// insert category (caller cần Forget nếu savepoint của row bị rollback).
func (c *CategoryCache) Resolve(ctx context.Context, tx pgx.Tx, name string) (id *int64, created bool, err error) {
	display := utils.CollapseSpaces(name)
	if display == "" {
		return nil, false, nil
	}

	key := utils.FoldName(display)
	if cached, ok := c.byKey[key]; ok {
		return &cached, false, nil
	}

	var cat *itemmodel.Category
	err = database.WithSavepoint(ctx, tx, func(sp pgx.Tx) error {
		var createErr error
		cat, createErr = c.repo.CreateTx(ctx, sp, display)
		return createErr
	})

	switch {
	case err == nil:
		created = true
		c.created++
		log.Info().Str("category", display).Int64("id", cat.ID).Msg("[IMPORT] Category created")
	case errors.Is(err, itemmodel.ErrDuplicateCategory):
		// writer khác vừa tạo cùng tên: đọc lại row đã có
		cat, err = c.repo.FindByNameTx(ctx, tx, display)
		if err != nil {
			return nil, false, fmt.Errorf("category %q: %w", display, err)
		}
	default:
		return nil, false, fmt.Errorf("category %q: %w", display, err)
	}

	c.byKey[key] = cat.ID
	catID := cat.ID
	return &catID, created, nil
}

// Forget bỏ entry khỏi cache, dùng khi row tạo category bị rollback.
func (c *CategoryCache) Forget(name string) {
	key := utils.FoldName(name)
	if _, ok := c.byKey[key]; ok {
		delete(c.byKey, key)
		c.created--
	}
}

func (c *CategoryCache) Len() int {
	return len(c.byKey)
}

// Created là số category được tạo (và chưa bị rollback) trong run.
func (c *CategoryCache) Created() int {
	return c.created
}
