package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// AnalyticsCache holds one precomputed report. Identity is
// (report_type, param_key) where param_key is the canonical encoding of the
// parameter set; at most one live row per identity. A row whose expiry has
// passed is treated as absent on read even if the sweep has not removed it
// yet.
type AnalyticsCache struct {
	AnalyticsCacheID int            `gorm:"primaryKey;autoIncrement" json:"analytics_cache_id"`
	ReportType       string         `gorm:"type:varchar(50);not null;index:idx_cache_identity,unique" json:"report_type"`
	ParamKey         string         `gorm:"type:varchar(500);not null;index:idx_cache_identity,unique" json:"param_key"`
	Parameters       datatypes.JSON `json:"parameters"`
	ResultData       datatypes.JSON `gorm:"not null" json:"result_data"`
	ComputedAt       time.Time      `gorm:"not null" json:"computed_at"`
	ExpiresAt        time.Time      `gorm:"not null;index" json:"expires_at"`
}

// CanonicalParams encodes a parameter set with sorted keys so that insertion
// order never changes cache identity.
func CanonicalParams(params map[string]any) (string, error) {
	if len(params) == 0 {
		return "{}", nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return "", err
		}
		vb, err := json.Marshal(params[k])
		if err != nil {
			return "", fmt.Errorf("could not encode cache parameter %q: %v", k, err)
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.String(), nil
}

type CacheRepo interface {
	Get(ctx context.Context, reportType string, params map[string]any) (datatypes.JSON, bool, error)
	Put(ctx context.Context, reportType string, params map[string]any, result any, ttl time.Duration) error
	Invalidate(ctx context.Context, reportType string) (int64, error)
	InvalidateAll(ctx context.Context) (int64, error)
	SweepExpired(ctx context.Context) (int64, error)
}
