package dto

// ── archive ──

// ArchiveListRequest archive list query
type ArchiveListRequest struct {
	PaginationRequest
	Type    string `form:"type"    binding:"omitempty,oneof=users students"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// ArchiveRequest optional reason recorded with the archive entry
type ArchiveRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// ArchiveEntryResponse one archived record
type ArchiveEntryResponse struct {
	ArchiveID  string                 `json:"archive_id"`
	Type       string                 `json:"type"`
	OriginalID string                 `json:"original_id"`
	FullName   string                 `json:"full_name"`
	Email      string                 `json:"email,omitempty"`
	Role       string                 `json:"role,omitempty"`
	LRN        string                 `json:"lrn,omitempty"`
	GradeLevel int                    `json:"grade_level,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
	ArchivedBy *string                `json:"archived_by,omitempty"`
	ArchivedAt string                 `json:"archived_at"`
	Snapshot   map[string]interface{} `json:"snapshot,omitempty"`
	// archived child rows per table
	Dependents map[string]int `json:"dependents,omitempty"`
}

// RestoreResponse restored record id plus snapshot columns the table no longer has
type RestoreResponse struct {
	Type           string   `json:"type"`
	ID             string   `json:"id"`
	DroppedColumns []string `json:"dropped_columns,omitempty"`
	// rows reinserted per child table; skipped rows lost their other parent
	RestoredDependents map[string]int `json:"restored_dependents,omitempty"`
	SkippedDependents  int            `json:"skipped_dependents,omitempty"`
}

// PurgeResponse archive purge outcome
type PurgeResponse struct {
	Purged int64  `json:"purged"`
	Cutoff string `json:"cutoff,omitempty"`
}
