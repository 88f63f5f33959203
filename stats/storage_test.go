package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStorage(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "stats-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	storage, err := NewStorage(tempDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Shutdown()

	t.Run("IncrementStats", func(t *testing.T) {
		storage.IncrementStats(1, 2, 3, 4)
		stats := storage.GetCurrentStats()

		if stats.AdhocCacheHits != 1 {
			t.Errorf("Expected 1 cache hit, got %d", stats.AdhocCacheHits)
		}
		if stats.AdhocCacheMisses != 2 {
			t.Errorf("Expected 2 cache misses, got %d", stats.AdhocCacheMisses)
		}
		if stats.ProjectAnalyses != 3 {
			t.Errorf("Expected 3 analyses, got %d", stats.ProjectAnalyses)
		}
		if stats.FailedAnalyses != 4 {
			t.Errorf("Expected 4 failures, got %d", stats.FailedAnalyses)
		}
	})

	t.Run("Persistence", func(t *testing.T) {
		if err := storage.save(); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}

		storage2, err := NewStorage(tempDir)
		if err != nil {
			t.Fatalf("Failed to create second storage: %v", err)
		}
		defer storage2.Shutdown()

		stats := storage2.GetCurrentStats()
		if stats.AdhocCacheHits != 1 {
			t.Errorf("Expected 1 cache hit after reload, got %d", stats.AdhocCacheHits)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		oldMonth := time.Now().AddDate(0, -2, 0).Format("2006-01")
		storage.mutex.Lock()
		storage.stats[oldMonth] = &MonthlyStats{
			AdhocCacheHits: 100,
			LastUpdated:    time.Now().AddDate(0, -2, 0),
		}
		storage.mutex.Unlock()

		storage.Cleanup(2)

		if _, exists := storage.GetMonthlyStats(oldMonth); exists {
			t.Error("Old stats should have been cleaned up")
		}
		if _, exists := storage.GetMonthlyStats(getCurrentMonth()); !exists {
			t.Error("Current month should be kept")
		}
	})

	t.Run("FileSize", func(t *testing.T) {
		if err := storage.save(); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}

		info, err := os.Stat(filepath.Join(tempDir, "stats.json"))
		if err != nil {
			t.Fatalf("Failed to stat file: %v", err)
		}

		if info.Size() > 1024 {
			t.Errorf("File size too large: %d bytes", info.Size())
		}
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		before := storage.GetCurrentStats()

		done := make(chan bool)
		for i := 0; i < 10; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					storage.IncrementStats(1, 1, 0, 0)
					storage.GetCurrentStats()
				}
				done <- true
			}()
		}

		for i := 0; i < 10; i++ {
			<-done
		}

		stats := storage.GetCurrentStats()
		if got := stats.AdhocCacheHits - before.AdhocCacheHits; got != 1000 {
			t.Errorf("Expected 1000 new hits, got %d", got)
		}
	})
}

func TestShutdownWritesFile(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	storage.IncrementStats(0, 0, 1, 0)
	if err := storage.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	// second call is a no-op apart from the save
	if err := storage.Shutdown(); err != nil {
		t.Fatalf("second Shutdown failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "stats.json")); err != nil {
		t.Errorf("Expected stats.json after shutdown: %v", err)
	}
}

func TestGetAllMonthsNewestFirst(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Shutdown()

	storage.stats["2024-01"] = &MonthlyStats{}
	storage.stats["2024-03"] = &MonthlyStats{}
	storage.stats["2023-12"] = &MonthlyStats{}

	months := storage.GetAllMonths()
	if len(months) != 3 || months[0] != "2024-03" || months[2] != "2023-12" {
		t.Errorf("Unexpected order: %v", months)
	}
}
