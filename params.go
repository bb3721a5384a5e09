package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pivolan/media_ratings/config"
)

// parseListParam разбирает параметр вида key_word__in=["a","b"].
// Пустой список равен отсутствию фильтра.
func parseListParam(c *gin.Context, name string) ([]string, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("bad %s: %v", name, err)
	}
	return values, nil
}

// parseFilter собирает фильтр каталога из query-параметров. Без явных дат
// подставляется окно по умолчанию из конфигурации.
func parseFilter(c *gin.Context, cfg *config.Config) (CatalogFilter, error) {
	var f CatalogFilter
	var err error
	if f.KeyWords, err = parseListParam(c, "key_word__in"); err != nil {
		return f, err
	}
	if f.Markets, err = parseListParam(c, "market__in"); err != nil {
		return f, err
	}
	if f.Publications, err = parseListParam(c, "publication__in"); err != nil {
		return f, err
	}
	if f.Regions, err = parseListParam(c, "region__in"); err != nil {
		return f, err
	}
	if f.Types, err = parseListParam(c, "type__in"); err != nil {
		return f, err
	}
	if f.Topics, err = parseListParam(c, "topic__in"); err != nil {
		return f, err
	}

	from := c.DefaultQuery("posted_date__gte", cfg.DefaultFromDate)
	to := c.DefaultQuery("posted_date__lte", cfg.DefaultToDate)
	if f.From, err = time.Parse("2006-01-02", from); err != nil {
		return f, fmt.Errorf("bad posted_date__gte: %v", err)
	}
	if f.To, err = time.Parse("2006-01-02", to); err != nil {
		return f, fmt.Errorf("bad posted_date__lte: %v", err)
	}
	return f, nil
}
