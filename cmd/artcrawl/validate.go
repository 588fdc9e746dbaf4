package main

import (
	"fmt"

	"github.com/galleryforge/artcrawl/internal/config"
)

// ValidateDatasetFlags checks the effective dataset-mode settings.
func ValidateDatasetFlags(cfg config.CrawlConfig) error {
	if err := validateShared(cfg); err != nil {
		return err
	}
	if cfg.MinPerClass < 0 {
		return fmt.Errorf("min-per-class must not be negative, got: %d", cfg.MinPerClass)
	}
	if cfg.MaxPerClass < 1 {
		return fmt.Errorf("max-per-class must be at least 1, got: %d", cfg.MaxPerClass)
	}
	if cfg.MinPerClass > cfg.MaxPerClass {
		return fmt.Errorf("min-per-class (%d) must not exceed max-per-class (%d)", cfg.MinPerClass, cfg.MaxPerClass)
	}
	if cfg.ArtistListPages < 1 {
		return fmt.Errorf("list-pages must be at least 1, got: %d", cfg.ArtistListPages)
	}
	if cfg.IndexPagesPerArtist < 1 {
		return fmt.Errorf("index-pages must be at least 1, got: %d", cfg.IndexPagesPerArtist)
	}
	return nil
}

// ValidateCollectFlags checks the effective collect-mode settings.
func ValidateCollectFlags(cfg config.CrawlConfig) error {
	if err := validateShared(cfg); err != nil {
		return err
	}
	if cfg.StartPage < 1 {
		return fmt.Errorf("start-page must be at least 1, got: %d", cfg.StartPage)
	}
	if cfg.EndPage < cfg.StartPage {
		return fmt.Errorf("end-page (%d) must not be before start-page (%d)", cfg.EndPage, cfg.StartPage)
	}
	if cfg.ScrollRounds < 0 {
		return fmt.Errorf("scroll-rounds must not be negative, got: %d", cfg.ScrollRounds)
	}
	return nil
}

func validateShared(cfg config.CrawlConfig) error {
	if cfg.Delay < 0 || cfg.Delay > 60 {
		return fmt.Errorf("delay must be between 0 and 60 seconds, got: %.2f", cfg.Delay)
	}
	if cfg.Retries < 1 || cfg.Retries > 10 {
		return fmt.Errorf("retries must be between 1 and 10, got: %d", cfg.Retries)
	}
	return nil
}
