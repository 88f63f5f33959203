package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Analysis is one immutable run of the pipeline against a project's URL.
type Analysis struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID    string    `gorm:"size:36;index:idx_analyses_project_time,priority:1" json:"projectId"`
	AnalyzedAt   time.Time `gorm:"index:idx_analyses_project_time,priority:2,sort:desc" json:"analyzedAt"`
	OverallScore int       `json:"overallScore"`

	Title                 string         `gorm:"type:text" json:"title"`
	TitleLength           int            `json:"titleLength"`
	MetaDescription       string         `gorm:"type:text" json:"metaDescription"`
	MetaDescriptionLength int            `json:"metaDescriptionLength"`
	CanonicalURL          string         `gorm:"type:text" json:"canonicalUrl"`
	RobotsMeta            string         `gorm:"size:255" json:"robotsMeta"`
	OGTitle               string         `gorm:"column:og_title;type:text" json:"ogTitle"`
	OGDescription         string         `gorm:"column:og_description;type:text" json:"ogDescription"`
	OGImage               string         `gorm:"column:og_image;type:text" json:"ogImage"`
	TwitterCard           string         `gorm:"size:64" json:"twitterCard"`
	H1Count               int            `gorm:"column:h1_count" json:"h1Count"`
	H1Tags                datatypes.JSON `gorm:"column:h1_tags;type:jsonb" json:"h1Tags"`
	H2Count               int            `gorm:"column:h2_count" json:"h2Count"`
	ImagesTotal           int            `json:"imagesTotal"`
	ImagesWithAlt         int            `json:"imagesWithAlt"`
	ImagesWithoutAlt      int            `json:"imagesWithoutAlt"`
	InternalLinks         int            `json:"internalLinks"`
	ExternalLinks         int            `json:"externalLinks"`
	WordCount             int            `json:"wordCount"`
	PageSizeKB            float64        `gorm:"column:page_size_kb" json:"pageSizeKb"`
	PageLoadTime          int64          `json:"pageLoadTime"`
	IsHTTPS               bool           `gorm:"column:is_https" json:"isHttps"`
	HasViewportMeta       bool           `json:"hasViewportMeta"`
	MobileFriendly        bool           `json:"mobileFriendly"`
	HasSchemaMarkup       bool           `json:"hasSchemaMarkup"`
	SchemaTypes           datatypes.JSON `gorm:"type:jsonb" json:"schemaTypes"`

	CriticalIssues  datatypes.JSON `gorm:"type:jsonb" json:"criticalIssues"`
	Warnings        datatypes.JSON `gorm:"type:jsonb" json:"warnings"`
	Recommendations datatypes.JSON `gorm:"type:jsonb" json:"recommendations"`

	RawHTML     string `gorm:"type:text" json:"-"`
	SnapshotKey string `gorm:"size:1024" json:"snapshotKey,omitempty"`
}

func (Analysis) TableName() string {
	return "seo_analyses"
}

// JSONList encodes a string list for a JSON column. Nil encodes as [].
func JSONList(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return datatypes.JSON(b)
}

// StringList decodes a JSON column written by JSONList. Bad or empty input
// yields an empty list.
func StringList(raw datatypes.JSON) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return []string{}
	}
	return out
}
