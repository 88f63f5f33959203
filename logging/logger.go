package logging

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Statistics collects request level counters for the /api/statistics endpoint.
type Statistics struct {
	UniqueVisitors   map[string]time.Time `json:"uniqueVisitors"`   // IP -> last visit
	AnalysisRequests int                  `json:"analysisRequests"` // ad-hoc and project analyses
	ErrorCount       int                  `json:"errorCount"`
	PopularURLs      map[string]int       `json:"popularUrls"`
	AverageLoadTime  float64              `json:"averageLoadTime"` // milliseconds
	TotalLoadTime    float64              `json:"totalLoadTime"`
	RequestCount     int                  `json:"requestCount"`
	LastPersisted    time.Time            `json:"lastPersisted"`

	mutex    sync.RWMutex
	filePath string
	devMode  bool
}

// NewStatistics loads <dataDir>/statistics.json if it exists. Popular URLs
// are only reported when devMode is set.
func NewStatistics(dataDir string, devMode bool) (*Statistics, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create data directory: %w", err)
	}
	s := &Statistics{
		UniqueVisitors: make(map[string]time.Time),
		PopularURLs:    make(map[string]int),
		LastPersisted:  time.Now(),
		filePath:       filepath.Join(dataDir, "statistics.json"),
		devMode:        devMode,
	}
	if err := s.Load(); err != nil {
		return s, err
	}
	return s, nil
}

func (s *Statistics) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.UniqueVisitors[ip] = time.Now()
}

// cleanURL reduces a URL to scheme, host and path. Local hosts and API paths
// return "".
func cleanURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return ""
	}

	if strings.Contains(u.Host, "localhost") ||
		strings.Contains(u.Host, "127.0.0.1") ||
		strings.Contains(strings.ToLower(u.Path), "/api/") {
		return ""
	}

	cleaned := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		cleaned += u.Path
	}

	return strings.TrimSuffix(cleaned, "/")
}

// TrackAnalysis records one analysis request for target.
func (s *Statistics) TrackAnalysis(target string, loadTime float64, hasError bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.AnalysisRequests++

	if cleaned := cleanURL(target); cleaned != "" {
		s.PopularURLs[cleaned]++
	}

	if hasError {
		s.ErrorCount++
	}

	s.TotalLoadTime += loadTime
	s.RequestCount++
	s.AverageLoadTime = s.TotalLoadTime / float64(s.RequestCount)
}

// PruneVisitors drops visitors not seen for longer than maxAge.
func (s *Statistics) PruneVisitors(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for ip, last := range s.UniqueVisitors {
		if last.Before(cutoff) {
			delete(s.UniqueVisitors, ip)
		}
	}
}

func (s *Statistics) GetUniqueVisitorsCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.uniqueVisitors()
}

func (s *Statistics) uniqueVisitors() int {
	count := 0
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

// URLCount is one entry of GetPopularURLs.
type URLCount struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// GetPopularURLs returns the n most analyzed URLs, most frequent first.
func (s *Statistics) GetPopularURLs(n int) []URLCount {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.popularURLs(n)
}

func (s *Statistics) popularURLs(n int) []URLCount {
	out := make([]URLCount, 0, len(s.PopularURLs))
	for u, c := range s.PopularURLs {
		out = append(out, URLCount{URL: u, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].URL < out[j].URL
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// GetErrorRate returns the error rate as a percentage.
func (s *Statistics) GetErrorRate() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.errorRate()
}

func (s *Statistics) errorRate() float64 {
	if s.AnalysisRequests == 0 {
		return 0
	}
	return (float64(s.ErrorCount) / float64(s.AnalysisRequests)) * 100
}

func (s *Statistics) TotalRequests() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.AnalysisRequests
}

// Save persists the statistics to statistics.json.
func (s *Statistics) Save() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.LastPersisted = time.Now()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("could not encode statistics: %v", err)
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("could not write statistics file: %v", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("could not replace statistics file: %v", err)
	}
	return nil
}

// Load reads statistics.json. A missing file is not an error.
func (s *Statistics) Load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open statistics file: %v", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("could not decode statistics: %v", err)
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = make(map[string]time.Time)
	}
	if s.PopularURLs == nil {
		s.PopularURLs = make(map[string]int)
	}
	return nil
}

// GetStatistics returns the public view of the statistics. Popular URLs are
// included in dev mode only.
func (s *Statistics) GetStatistics() map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := map[string]interface{}{
		"uniqueVisitors24h": s.uniqueVisitors(),
		"totalRequests":     s.AnalysisRequests,
		"errorRate":         s.errorRate(),
		"averageLoadTime":   s.AverageLoadTime,
	}
	if s.devMode {
		out["popularUrls"] = s.popularURLs(5)
	}
	return out
}
